package dico

import (
	js "github.com/nizox/dico/jsonschema"
)

// ListOption configures List.
type ListOption func(*listType)

// MinItems sets the minimum number of elements.
func MinItems(n int) ListOption { return func(t *listType) { t.minItems = n } }

// MaxItems sets the maximum number of elements.
func MaxItems(n int) ListOption { return func(t *listType) { t.maxItems = n } }

// List returns a sequence field type whose elements are validated by elem.
// Assigned sequences are stored as []any; mappings assigned to a list of
// Embedded become documents.
func List(elem FieldType, opts ...ListOption) FieldType {
	t := &listType{elem: elem, minItems: -1, maxItems: -1}
	for _, o := range opts {
		if o != nil {
			o(t)
		}
	}
	return t
}

type listType struct {
	elem     FieldType
	minItems int
	maxItems int
}

// Elem returns the element field type.
func (t *listType) Elem() FieldType { return t.elem }

func (t *listType) Kind() Kind { return KindList }

func (t *listType) Validate(v any) bool { return len(t.checkDeep(v, false, false)) == 0 }

func (t *listType) Check(v any, required bool) Issues { return t.checkDeep(v, required, false) }

func (t *listType) checkDeep(v any, _, partial bool) Issues {
	items, ok := asSlice(v)
	if !ok {
		return Issues{issueAt("/", CodeInvalidType, map[string]any{"expected": "list"})}
	}
	n := len(items)
	if t.maxItems >= 0 && n > t.maxItems {
		return Issues{issueAt("/", CodeTooLong, map[string]any{"max": t.maxItems, "got": n})}
	}
	if t.minItems >= 0 && n < t.minItems {
		return Issues{issueAt("/", CodeTooShort, map[string]any{"min": t.minItems, "got": n})}
	}
	var iss Issues
	for i, e := range items {
		if child := checkValue(t.elem, e, false, partial); len(child) > 0 {
			iss = AppendIssues(iss, rebase(indexToken(i), child)...)
		}
	}
	return iss
}

func (t *listType) prepare(owner *Document, field string, v any) any {
	items, ok := asSlice(v)
	if !ok {
		return v
	}
	out := make([]any, len(items))
	seen := map[*Document]struct{}{}
	for i, e := range items {
		out[i] = ownOnce(owner, field, prepareValue(t.elem, owner, field, e), seen)
	}
	return out
}

// ownOnce clones v when seen already holds it, so every list slot owns a
// distinct document.
func ownOnce(owner *Document, field string, v any, seen map[*Document]struct{}) any {
	c, ok := v.(*Document)
	if !ok || c == nil {
		return v
	}
	if _, dup := seen[c]; dup {
		c = c.Clone()
		c.attach(owner, field)
	}
	seen[c] = struct{}{}
	return c
}

func (t *listType) export(v any, view string) (any, error) {
	items, ok := v.([]any)
	if !ok {
		return cloneValue(v), nil
	}
	out := make([]any, len(items))
	for i, e := range items {
		ev, err := exportValue(t.elem, e, view)
		if err != nil {
			return nil, err
		}
		out[i] = ev
	}
	return out, nil
}

func (t *listType) declErrors() []string {
	if t.elem == nil {
		return []string{"list element type is nil"}
	}
	if d, ok := t.elem.(declarer); ok {
		return d.declErrors()
	}
	return nil
}

func (t *listType) JSONSchema() *js.Schema { return t.jsonSchemaFor(DefaultName) }

func (t *listType) jsonSchemaFor(view string) *js.Schema {
	s := &js.Schema{Type: "array", Items: typeJSONSchema(t.elem, view)}
	if t.minItems >= 0 {
		n := t.minItems
		s.MinItems = &n
	}
	if t.maxItems >= 0 {
		n := t.maxItems
		s.MaxItems = &n
	}
	return s
}

// Embedded returns a field type holding a document of schema s.
func Embedded(s *Schema) FieldType { return &embeddedType{schema: s} }

type embeddedType struct {
	schema *Schema
}

// Schema returns the embedded document schema.
func (t *embeddedType) Schema() *Schema { return t.schema }

func (t *embeddedType) Kind() Kind { return KindEmbedded }

func (t *embeddedType) Validate(v any) bool { return len(t.checkDeep(v, false, false)) == 0 }

func (t *embeddedType) Check(v any, required bool) Issues { return t.checkDeep(v, required, false) }

func (t *embeddedType) checkDeep(v any, _, partial bool) Issues {
	if v == nil {
		return nil
	}
	d, ok := v.(*Document)
	if !ok || d == nil || d.schema != t.schema {
		return Issues{issueAt("/", CodeInvalidType, map[string]any{"expected": t.schema.Name()})}
	}
	return d.check(partial)
}

// prepare builds a child document from a mapping (cascade construction) or
// attaches an existing document to owner.
func (t *embeddedType) prepare(owner *Document, field string, v any) any {
	switch x := v.(type) {
	case map[string]any:
		child := newDocument(t.schema)
		child.attach(owner, field)
		child.apply(t.schema.sources[DefaultName], x, false)
		child.applyDefaults()
		return child
	case *Document:
		if x == nil {
			return nil
		}
		if x.schema != t.schema {
			return x
		}
		// a document held by another parent, or by another field of owner,
		// is copied
		if p := x.Parent(); p != nil && (p != owner || x.parentField != field) {
			logger().Debug().
				Str("schema", t.schema.Name()).
				Str("field", field).
				Msg("embedded document owned elsewhere, cloning")
			x = x.Clone()
		}
		x.attach(owner, field)
		return x
	}
	return v
}

func (t *embeddedType) export(v any, view string) (any, error) {
	d, ok := v.(*Document)
	if !ok || d == nil {
		return cloneValue(v), nil
	}
	if !d.schema.HasView(view) {
		view = DefaultName
	}
	// the parent already validated the whole tree
	return d.To(view, SkipValidation())
}

func (t *embeddedType) declErrors() []string {
	if t.schema == nil {
		return []string{"embedded schema is nil"}
	}
	return nil
}

func (t *embeddedType) JSONSchema() *js.Schema { return t.jsonSchemaFor(DefaultName) }

func (t *embeddedType) jsonSchemaFor(view string) *js.Schema {
	if !t.schema.HasView(view) {
		view = DefaultName
	}
	s, err := t.schema.JSONSchema(view)
	if err != nil {
		return &js.Schema{Type: "object"}
	}
	return s
}

func typeJSONSchema(t FieldType, view string) *js.Schema {
	if e, ok := t.(interface{ jsonSchemaFor(string) *js.Schema }); ok {
		return e.jsonSchemaFor(view)
	}
	if e, ok := t.(JSONSchemer); ok {
		return e.JSONSchema()
	}
	return &js.Schema{}
}
