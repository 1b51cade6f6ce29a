package dico_test

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/nizox/dico"
)

func TestJSONSchema_Object(t *testing.T) {
	s, err := userSchema.JSONSchema(dico.DefaultName)
	if err != nil {
		t.Fatalf("JSONSchema: %v", err)
	}
	if s.Title != "User" || s.Type != "object" {
		t.Fatalf("unexpected root: %+v", s)
	}
	if !reflect.DeepEqual(s.Required, []string{"id"}) {
		t.Fatalf("unexpected required: %v", s.Required)
	}
	if s.Properties["id"].Type != "integer" || s.Properties["name"].Type != "string" {
		t.Fatalf("unexpected scalar properties: %+v", s.Properties)
	}
	tokens := s.Properties["tokens"]
	if tokens.Type != "array" || tokens.Items == nil || tokens.Items.Title != "OAuthToken" {
		t.Fatalf("unexpected tokens schema: %+v", tokens)
	}
	secret := tokens.Items.Properties["consumer_secret"]
	if secret.MaxLength == nil || *secret.MaxLength != 32 {
		t.Fatalf("unexpected consumer_secret schema: %+v", secret)
	}
	if tokens.Items.Properties["active"].Default != true {
		t.Fatalf("default not described")
	}
}

func TestJSONSchema_ViewAndFormats(t *testing.T) {
	s := dico.NewSchema("Contact").
		Field("email", dico.Email()).
		Field("site", dico.URL()).
		Field("seen", dico.DateTime()).
		Field("kind", dico.String(), dico.Choices("a", "b")).
		Field("age", dico.Integer(dico.Min(0))).
		View("mail", dico.Keep("email")).
		MustBuild()

	full, err := s.JSONSchema(dico.DefaultName)
	if err != nil {
		t.Fatalf("JSONSchema: %v", err)
	}
	b, err := json.Marshal(full)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	props := got["properties"].(map[string]any)
	if props["email"].(map[string]any)["format"] != "email" || props["seen"].(map[string]any)["format"] != "date-time" {
		t.Fatalf("formats not described: %v", props)
	}
	if !reflect.DeepEqual(props["kind"].(map[string]any)["enum"], []any{"a", "b"}) {
		t.Fatalf("choices not described: %v", props["kind"])
	}
	if props["age"].(map[string]any)["minimum"] != float64(0) {
		t.Fatalf("minimum not described: %v", props["age"])
	}

	mail, err := s.JSONSchema("mail")
	if err != nil {
		t.Fatalf("JSONSchema(mail): %v", err)
	}
	if len(mail.Properties) != 1 || mail.Properties["email"] == nil {
		t.Fatalf("view projection not applied: %v", mail.Properties)
	}

	if _, err := s.JSONSchema("nope"); !errors.Is(err, dico.ErrUnknownView) {
		t.Fatalf("expected ErrUnknownView, got %v", err)
	}
}
