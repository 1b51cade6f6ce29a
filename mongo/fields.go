// Package mongo adapts dico documents to MongoDB: ObjectID and GeoPoint field
// types, BSON encoding through views, decoding through sources, and helpers
// building projections and $set updates.
package mongo

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nizox/dico"
	"github.com/nizox/dico/i18n"
	js "github.com/nizox/dico/jsonschema"
)

// KindObjectID tags ObjectID fields.
const KindObjectID dico.Kind = "objectid"

// ObjectID accepts primitive.ObjectID values and coerces their hex form.
func ObjectID() dico.FieldType { return objectIDType{} }

type objectIDType struct{}

func (objectIDType) Kind() dico.Kind { return KindObjectID }

func (objectIDType) Validate(v any) bool { return len(objectIDType{}.Check(v, false)) == 0 }

func (objectIDType) Check(v any, _ bool) dico.Issues {
	switch v.(type) {
	case primitive.ObjectID:
		return nil
	case string:
		return dico.Issues{issue(dico.CodeInvalidFormat, map[string]string{"format": "objectid"})}
	}
	return dico.Issues{issue(dico.CodeInvalidType, map[string]string{"expected": "objectid"})}
}

func (objectIDType) Coerce(v any) any {
	switch x := v.(type) {
	case string:
		if id, err := primitive.ObjectIDFromHex(x); err == nil {
			return id
		}
	case *primitive.ObjectID:
		if x != nil {
			return *x
		}
	}
	return v
}

func (objectIDType) JSONSchema() *js.Schema {
	return &js.Schema{Type: "string", Pattern: "^[0-9a-fA-F]{24}$"}
}

// NewID is a field option defaulting the field to a fresh ObjectID.
func NewID() dico.FieldOption {
	return dico.DefaultFunc(func() any { return primitive.NewObjectID() })
}

// GeoPoint is a list of exactly two floats (longitude, latitude).
func GeoPoint() dico.FieldType {
	return dico.List(dico.Float(), dico.MinItems(2), dico.MaxItems(2))
}

func issue(code string, data map[string]string) dico.Issue {
	params := make(map[string]any, len(data))
	for k, v := range data {
		params[k] = v
	}
	return dico.Issue{Path: "/", Code: code, Message: i18n.T(code, data), Params: params}
}
