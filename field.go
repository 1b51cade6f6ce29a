package dico

import (
	"reflect"

	js "github.com/nizox/dico/jsonschema"
)

// Kind tags the value shape a FieldType accepts.
type Kind string

const (
	KindBool      Kind = "boolean"
	KindString    Kind = "string"
	KindIPAddress Kind = "ip"
	KindURL       Kind = "url"
	KindEmail     Kind = "email"
	KindInteger   Kind = "integer"
	KindFloat     Kind = "float"
	KindDateTime  Kind = "datetime"
	KindUUID      Kind = "uuid"
	KindList      Kind = "list"
	KindEmbedded  Kind = "embedded"
)

// FieldType validates one value shape. Implementations must be safe for
// concurrent use once built: the same FieldType is shared by every document of
// a schema.
type FieldType interface {
	Kind() Kind
	// Validate reports whether v is an acceptable value. It must not panic.
	Validate(v any) bool
}

// Coercer is implemented by field types that convert raw input (for example
// a decoded string) into their canonical form. Coerce returns v unchanged when
// it cannot convert it; the value then fails validation later.
type Coercer interface {
	Coerce(v any) any
}

// Checker is implemented by field types that report structured issues.
// required is the declaring field's required flag; issues are rooted at "/".
type Checker interface {
	Check(v any, required bool) Issues
}

// JSONSchemer is implemented by field types that can describe themselves.
type JSONSchemer interface {
	JSONSchema() *js.Schema
}

// preparer converts an assigned value in the context of its owning document.
// Embedded and list types use it to attach children to their parent.
type preparer interface {
	prepare(owner *Document, field string, v any) any
}

// deepChecker checks values that may contain documents; partial selects
// validate_partial semantics for those documents.
type deepChecker interface {
	checkDeep(v any, required, partial bool) Issues
}

// exporter converts a stored value into plain data for the given view.
type exporter interface {
	export(v any, view string) (any, error)
}

// declarer reports declaration problems found when a schema is built.
type declarer interface {
	declErrors() []string
}

// checkValue runs the richest check a field type offers.
func checkValue(t FieldType, v any, required, partial bool) Issues {
	if dc, ok := t.(deepChecker); ok {
		return dc.checkDeep(v, required, partial)
	}
	if c, ok := t.(Checker); ok {
		return c.Check(v, required)
	}
	if t.Validate(v) {
		return nil
	}
	return Issues{issueAt("/", CodeInvalidValue, map[string]any{"kind": string(t.Kind())})}
}

// prepareValue coerces v for assignment to field of owner.
func prepareValue(t FieldType, owner *Document, field string, v any) any {
	if p, ok := t.(preparer); ok {
		return p.prepare(owner, field, v)
	}
	if c, ok := t.(Coercer); ok {
		return c.Coerce(v)
	}
	return v
}

// exportValue turns a stored value into data the caller may freely mutate.
func exportValue(t FieldType, v any, view string) (any, error) {
	if e, ok := t.(exporter); ok {
		return e.export(v, view)
	}
	return cloneValue(v), nil
}

// FieldDescriptor binds a FieldType to a name within a schema.
type FieldDescriptor struct {
	name       string
	typ        FieldType
	required   bool
	hasDefault bool
	def        any
	defFunc    func() any
	aliases    []string
	choices    []any
}

// FieldOption configures a FieldDescriptor.
type FieldOption func(*FieldDescriptor)

// Required marks the field as required.
func Required() FieldOption {
	return func(f *FieldDescriptor) { f.required = true }
}

// Default sets a literal default. Slices and maps are copied for every
// document so instances never share them.
func Default(v any) FieldOption {
	return func(f *FieldDescriptor) {
		f.hasDefault = v != nil
		f.def = v
		f.defFunc = nil
	}
}

// DefaultFunc sets a default factory, called once per document.
func DefaultFunc(fn func() any) FieldOption {
	return func(f *FieldDescriptor) {
		f.hasDefault = fn != nil
		f.def = nil
		f.defFunc = fn
	}
}

// Aliases declares alternate external names accepted on import.
func Aliases(names ...string) FieldOption {
	return func(f *FieldDescriptor) { f.aliases = append(f.aliases, names...) }
}

// Choices restricts the field to the given values.
func Choices(values ...any) FieldOption {
	return func(f *FieldDescriptor) { f.choices = append(f.choices, values...) }
}

func (f *FieldDescriptor) Name() string      { return f.name }
func (f *FieldDescriptor) Type() FieldType   { return f.typ }
func (f *FieldDescriptor) IsRequired() bool  { return f.required }
func (f *FieldDescriptor) HasDefault() bool  { return f.hasDefault }
func (f *FieldDescriptor) Aliases() []string { return append([]string(nil), f.aliases...) }

// defaultValue returns a fresh default for one document.
func (f *FieldDescriptor) defaultValue() (any, bool) {
	switch {
	case f.defFunc != nil:
		v := f.defFunc()
		return v, v != nil
	case f.hasDefault:
		return cloneValue(f.def), true
	}
	if lt, ok := f.typ.(*listType); ok && lt.minItems <= 0 {
		// lists start empty rather than absent, unless empty is invalid
		return []any{}, true
	}
	return nil, false
}

func (f *FieldDescriptor) check(v any, partial bool) Issues {
	if len(f.choices) > 0 && !f.allowed(v) {
		return rebase(fieldToken(f.name), Issues{issueAt("/", CodeInvalidEnum, map[string]any{"choices": f.choices})})
	}
	return rebase(fieldToken(f.name), checkValue(f.typ, v, f.required, partial))
}

func (f *FieldDescriptor) allowed(v any) bool {
	for _, c := range f.choices {
		if reflect.DeepEqual(c, v) {
			return true
		}
		// decoded numbers rarely share the Go type of the declared choice
		if a, ok := asNumber(c); ok {
			if b, ok := asNumber(v); ok && a == b {
				return true
			}
		}
	}
	return false
}

func (f *FieldDescriptor) jsonSchema(view string) *js.Schema {
	s := typeJSONSchema(f.typ, view)
	if s == nil {
		s = &js.Schema{}
	}
	if len(f.choices) > 0 {
		s.Enum = append([]any(nil), f.choices...)
	}
	if f.hasDefault && f.def != nil {
		s.Default = f.def
	}
	return s
}
