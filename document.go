package dico

import (
	"fmt"
	"weak"
)

// Document is one instance of a Schema: current field values plus the set
// of fields modified since construction (or the last ResetModified).
//
// A Document is not safe for concurrent mutation. Embedded documents are
// owned by exactly one parent; the parent link is weak and only used to
// propagate modification notices.
type Document struct {
	schema      *Schema
	values      map[string]any
	modified    map[string]struct{}
	parent      weak.Pointer[Document]
	parentField string
}

func newDocument(s *Schema) *Document {
	return &Document{
		schema:   s,
		values:   make(map[string]any, len(s.order)),
		modified: map[string]struct{}{},
	}
}

// New builds a document from values through the default source. It never
// fails: bad values are reported by Validate.
func (s *Schema) New(values map[string]any) *Document {
	d := newDocument(s)
	d.apply(s.sources[DefaultName], values, false)
	d.applyDefaults()
	return d
}

// FromDict is New.
func (s *Schema) FromDict(data map[string]any) *Document { return s.New(data) }

// From builds a document from data through the named source. The returned
// document has no modified fields.
func (s *Schema) From(source string, data map[string]any) (*Document, error) {
	p, ok := s.sources[source]
	if !ok {
		return nil, fmt.Errorf("%w: %q on schema %q", ErrUnknownSource, source, s.name)
	}
	d := newDocument(s)
	d.apply(p, data, false)
	d.applyDefaults()
	return d, nil
}

// UpdateFrom assigns data through the named source; assigned fields are
// marked modified.
func (d *Document) UpdateFrom(source string, data map[string]any) error {
	p, ok := d.schema.sources[source]
	if !ok {
		return fmt.Errorf("%w: %q on schema %q", ErrUnknownSource, source, d.schema.name)
	}
	d.apply(p, data, true)
	return nil
}

// UpdateFromDict is UpdateFrom with the default source.
func (d *Document) UpdateFromDict(data map[string]any) {
	d.apply(d.schema.sources[DefaultName], data, true)
}

func (d *Document) applyDefaults() {
	for _, name := range d.schema.order {
		if _, set := d.values[name]; set {
			continue
		}
		f := d.schema.fields[name]
		dv, ok := f.defaultValue()
		if !ok {
			continue
		}
		if pv := prepareValue(f.typ, d, name, dv); pv != nil {
			d.values[name] = pv
		}
	}
}

// Schema returns the document schema.
func (d *Document) Schema() *Schema { return d.schema }

// Parent returns the document embedding d, or nil.
func (d *Document) Parent() *Document { return d.parent.Value() }

// ParentField returns the parent field holding d; empty when d is not embedded.
func (d *Document) ParentField() string {
	if d.Parent() == nil {
		return ""
	}
	return d.parentField
}

func (d *Document) attach(owner *Document, field string) {
	d.parent = weak.Make(owner)
	d.parentField = field
}

func (d *Document) detach() {
	d.parent = weak.Pointer[Document]{}
	d.parentField = ""
}

// release detaches the documents held by field in old that next no longer
// holds.
func (d *Document) release(field string, old, next any) {
	gone := embeddedIn(old)
	if len(gone) == 0 {
		return
	}
	kept := map[*Document]struct{}{}
	for _, c := range embeddedIn(next) {
		kept[c] = struct{}{}
	}
	for _, c := range gone {
		if _, ok := kept[c]; ok {
			continue
		}
		if c.Parent() == d && c.parentField == field {
			c.detach()
		}
	}
}

// embeddedIn returns the documents stored directly in a field value.
func embeddedIn(v any) []*Document {
	switch x := v.(type) {
	case *Document:
		if x != nil {
			return []*Document{x}
		}
	case []any:
		var out []*Document
		for _, e := range x {
			if c, ok := e.(*Document); ok && c != nil {
				out = append(out, c)
			}
		}
		return out
	}
	return nil
}

// Set assigns a field. Unknown names fail with ErrUnknownField; the value
// itself is only checked by Validate. Setting nil clears the field.
func (d *Document) Set(name string, v any) error {
	f, ok := d.schema.fields[name]
	if !ok {
		return fmt.Errorf("%w: %q on schema %q", ErrUnknownField, name, d.schema.name)
	}
	if v != nil {
		v = prepareValue(f.typ, d, name, v)
	}
	d.release(name, d.values[name], v)
	if v == nil {
		delete(d.values, name)
	} else {
		d.values[name] = v
	}
	d.markModified(name)
	return nil
}

// Get returns the value of a field or property; nil when absent or unknown.
func (d *Document) Get(name string) any {
	v, _ := d.Lookup(name)
	return v
}

// Lookup returns the value of a field or property and whether it is present.
func (d *Document) Lookup(name string) (any, bool) {
	if _, ok := d.schema.fields[name]; ok {
		v, ok := d.values[name]
		return v, ok
	}
	if fn, ok := d.schema.props[name]; ok {
		return fn(d), true
	}
	return nil, false
}

// Has reports whether a field currently holds a value.
func (d *Document) Has(name string) bool {
	_, ok := d.values[name]
	return ok
}

// Append adds values to a list field and marks it modified.
func (d *Document) Append(name string, values ...any) error {
	lt, cur, err := d.list(name)
	if err != nil {
		return err
	}
	next := make([]any, len(cur), len(cur)+len(values))
	copy(next, cur)
	seen := map[*Document]struct{}{}
	for _, c := range embeddedIn(cur) {
		seen[c] = struct{}{}
	}
	for _, v := range values {
		next = append(next, ownOnce(d, name, prepareValue(lt.elem, d, name, v), seen))
	}
	d.values[name] = next
	d.markModified(name)
	return nil
}

// RemoveAt removes the element at index i of a list field and marks it
// modified.
func (d *Document) RemoveAt(name string, i int) error {
	_, cur, err := d.list(name)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(cur) {
		return fmt.Errorf("dico: %s.%s: index %d out of range [0,%d)", d.schema.name, name, i, len(cur))
	}
	next := make([]any, 0, len(cur)-1)
	next = append(next, cur[:i]...)
	next = append(next, cur[i+1:]...)
	d.release(name, cur[i], next)
	d.values[name] = next
	d.markModified(name)
	return nil
}

func (d *Document) list(name string) (*listType, []any, error) {
	f, ok := d.schema.fields[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q on schema %q", ErrUnknownField, name, d.schema.name)
	}
	lt, ok := f.typ.(*listType)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s.%s", ErrNotList, d.schema.name, name)
	}
	v, present := d.values[name]
	if !present {
		return lt, nil, nil
	}
	cur, ok := v.([]any)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s.%s holds %T", ErrNotList, d.schema.name, name, v)
	}
	return lt, cur, nil
}

func (d *Document) markModified(name string) {
	d.modified[name] = struct{}{}
	if p := d.parent.Value(); p != nil {
		p.markModified(d.parentField)
	}
}

// ModifiedFields returns the modified field names in declaration order.
func (d *Document) ModifiedFields() []string {
	out := make([]string, 0, len(d.modified))
	for _, name := range d.schema.order {
		if _, ok := d.modified[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// IsModified reports whether a field was modified.
func (d *Document) IsModified(name string) bool {
	_, ok := d.modified[name]
	return ok
}

// ResetModified clears the modified set of d and of its embedded documents.
func (d *Document) ResetModified() {
	clear(d.modified)
	for _, v := range d.values {
		switch x := v.(type) {
		case *Document:
			if x != nil && x.Parent() == d {
				x.ResetModified()
			}
		case []any:
			for _, e := range x {
				if c, ok := e.(*Document); ok && c != nil && c.Parent() == d {
					c.ResetModified()
				}
			}
		}
	}
}

// Clone returns a deep copy of d, embedded documents included. The copy has
// no parent.
func (d *Document) Clone() *Document {
	c := newDocument(d.schema)
	for k, v := range d.values {
		c.values[k] = c.adopt(k, v)
	}
	for k := range d.modified {
		c.modified[k] = struct{}{}
	}
	return c
}

func (d *Document) adopt(field string, v any) any {
	switch x := v.(type) {
	case *Document:
		if x == nil {
			return nil
		}
		cc := x.Clone()
		cc.attach(d, field)
		return cc
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = d.adopt(field, e)
		}
		return out
	}
	return cloneValue(v)
}

// Validate reports whether every required field has a value and every
// present value satisfies its field type.
func (d *Document) Validate() bool { return len(d.check(false)) == 0 }

// ValidatePartial is Validate without the required check.
func (d *Document) ValidatePartial() bool { return len(d.check(true)) == 0 }

// Check is Validate returning the Issues found, or nil.
func (d *Document) Check() error {
	if iss := d.check(false); len(iss) > 0 {
		return iss
	}
	return nil
}

// CheckPartial is ValidatePartial returning the Issues found, or nil.
func (d *Document) CheckPartial() error {
	if iss := d.check(true); len(iss) > 0 {
		return iss
	}
	return nil
}

func (d *Document) check(partial bool) Issues {
	var iss Issues
	for _, name := range d.schema.order {
		f := d.schema.fields[name]
		v, ok := d.values[name]
		if !ok || v == nil {
			if f.required && !partial {
				iss = AppendIssues(iss, issueAt("/"+fieldToken(name), CodeRequired, nil))
			}
			continue
		}
		if child := f.check(v, partial); len(child) > 0 {
			iss = AppendIssues(iss, child...)
		}
	}
	return iss
}
