package i18n

import "testing"

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	if msg := T("required", nil); msg == "required" || msg == "" {
		t.Fatalf("expected a human message, got %q", msg)
	}

	SetLanguage("ja")
	if msg := T("required", nil); msg == "required field missing" {
		t.Fatalf("expected japanese message, got %q", msg)
	}

	// reset to en
	SetLanguage("en")
}

func TestTranslator_Params(t *testing.T) {
	if msg := T("too_long", map[string]string{"max": "32"}); msg != "too long, maximum is 32" {
		t.Fatalf("unexpected message %q", msg)
	}
	if msg := T("invalid_format", map[string]string{"format": "email"}); msg != "invalid email" {
		t.Fatalf("unexpected message %q", msg)
	}
	// unknown codes fall back to the code itself
	if msg := T("custom_code", nil); msg != "custom_code" {
		t.Fatalf("expected code fallback, got %q", msg)
	}
}

type upper struct{}

func (upper) Message(code string, _ map[string]string) string { return "X:" + code }

func TestTranslator_Replace(t *testing.T) {
	SetTranslator(upper{})
	defer SetTranslator(nil)
	if msg := T("required", nil); msg != "X:required" {
		t.Fatalf("custom translator not used, got %q", msg)
	}
}
