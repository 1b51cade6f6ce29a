package dico

import (
	"fmt"
)

// DefaultName names the implicit view and source every schema has. ToDict
// and FromDict use them.
const DefaultName = "dict"

// PropertyFunc computes a read-only value exported by views that name it.
type PropertyFunc func(d *Document) any

// Schema is the immutable description of a document class: ordered fields,
// properties, views and sources. A Schema is safe for concurrent use.
type Schema struct {
	name        string
	order       []string
	fields      map[string]*FieldDescriptor
	aliases     map[string]string
	props       map[string]PropertyFunc
	propOrder   []string
	views       map[string]*projection
	viewOrder   []string
	sources     map[string]*projection
	sourceOrder []string
	// declarations kept so that extending schemas can re-project them
	viewDecls   map[string]*projectionDecl
	sourceDecls map[string]*projectionDecl
}

// projection is a registered view or source.
type projection struct {
	name    string
	fields  []string // fields in declaration order, then properties
	allowed map[string]struct{}
	filters []Filter
}

func (p *projection) allows(name string) bool {
	_, ok := p.allowed[name]
	return ok
}

// ProjectionOption configures a view or a source.
type ProjectionOption func(*projectionDecl)

type projectionDecl struct {
	name      string
	keep      []string
	remove    []string
	keepSet   bool
	removeSet bool
	filters   []Filter
}

// Keep restricts the projection to the named fields (and, for views,
// properties). Keep with no names keeps nothing.
func Keep(names ...string) ProjectionOption {
	return func(p *projectionDecl) {
		p.keep = append(p.keep, names...)
		p.keepSet = true
	}
}

// Remove drops the named fields from the projection.
func Remove(names ...string) ProjectionOption {
	return func(p *projectionDecl) {
		p.remove = append(p.remove, names...)
		p.removeSet = true
	}
}

// Filters appends filters, applied in the given order.
func Filters(fns ...Filter) ProjectionOption {
	return func(p *projectionDecl) { p.filters = append(p.filters, fns...) }
}

type propDecl struct {
	name string
	fn   PropertyFunc
}

// SchemaBuilder declares a Schema. Errors are collected and reported by Build.
type SchemaBuilder struct {
	name    string
	base    *Schema
	fields  []*FieldDescriptor
	props   []propDecl
	views   []*projectionDecl
	sources []*projectionDecl
}

// NewSchema starts a schema declaration.
func NewSchema(name string) *SchemaBuilder {
	return &SchemaBuilder{name: name}
}

// Extends inherits the fields and properties of base. Fields declared on the
// builder with the same name replace the inherited ones in place. Views and
// sources of base are inherited and projected over the extended field set;
// declaring one with the same name replaces it.
func (b *SchemaBuilder) Extends(base *Schema) *SchemaBuilder {
	b.base = base
	return b
}

// Field declares a field. Declaration order is the export order.
func (b *SchemaBuilder) Field(name string, typ FieldType, opts ...FieldOption) *SchemaBuilder {
	f := &FieldDescriptor{name: name, typ: typ}
	for _, o := range opts {
		if o != nil {
			o(f)
		}
	}
	b.fields = append(b.fields, f)
	return b
}

// Property declares a computed value available to views and Lookup.
func (b *SchemaBuilder) Property(name string, fn PropertyFunc) *SchemaBuilder {
	b.props = append(b.props, propDecl{name: name, fn: fn})
	return b
}

// View registers a named export projection.
func (b *SchemaBuilder) View(name string, opts ...ProjectionOption) *SchemaBuilder {
	b.views = append(b.views, newProjectionDecl(name, opts))
	return b
}

// Source registers a named import projection.
func (b *SchemaBuilder) Source(name string, opts ...ProjectionOption) *SchemaBuilder {
	b.sources = append(b.sources, newProjectionDecl(name, opts))
	return b
}

func newProjectionDecl(name string, opts []ProjectionOption) *projectionDecl {
	p := &projectionDecl{name: name}
	for _, o := range opts {
		if o != nil {
			o(p)
		}
	}
	return p
}

// Build validates the declaration and returns the Schema. Any problem is
// reported as a *DeclarationError.
func (b *SchemaBuilder) Build() (*Schema, error) {
	s := &Schema{
		name:    b.name,
		fields:  map[string]*FieldDescriptor{},
		aliases: map[string]string{},
		props:   map[string]PropertyFunc{},
		views:   map[string]*projection{},
		sources: map[string]*projection{},
	}
	var errs []string
	fail := func(format string, args ...any) { errs = append(errs, fmt.Sprintf(format, args...)) }

	if b.base != nil {
		for _, name := range b.base.order {
			s.order = append(s.order, name)
			s.fields[name] = b.base.fields[name]
		}
		for _, name := range b.base.propOrder {
			s.propOrder = append(s.propOrder, name)
			s.props[name] = b.base.props[name]
		}
	}

	declared := map[string]struct{}{}
	for _, f := range b.fields {
		switch {
		case f.name == "":
			fail("field with empty name")
			continue
		case f.typ == nil:
			fail("field %q: nil field type", f.name)
			continue
		}
		if _, dup := declared[f.name]; dup {
			fail("duplicate field %q", f.name)
			continue
		}
		declared[f.name] = struct{}{}
		if d, ok := f.typ.(declarer); ok {
			for _, e := range d.declErrors() {
				fail("field %q: %s", f.name, e)
			}
		}
		if _, inherited := s.fields[f.name]; !inherited {
			s.order = append(s.order, f.name)
		}
		s.fields[f.name] = f
	}

	declaredProps := map[string]struct{}{}
	for _, p := range b.props {
		switch {
		case p.name == "":
			fail("property with empty name")
			continue
		case p.fn == nil:
			fail("property %q: nil function", p.name)
			continue
		}
		if _, dup := declaredProps[p.name]; dup {
			fail("duplicate property %q", p.name)
			continue
		}
		declaredProps[p.name] = struct{}{}
		if _, inherited := s.props[p.name]; !inherited {
			s.propOrder = append(s.propOrder, p.name)
		}
		s.props[p.name] = p.fn
	}
	for _, name := range s.propOrder {
		if _, clash := s.fields[name]; clash {
			fail("property %q: name already used by a field", name)
		}
	}

	for _, name := range s.order {
		for _, a := range s.fields[name].aliases {
			switch {
			case a == "":
				fail("field %q: empty alias", name)
			case s.fields[a] != nil:
				fail("field %q: alias %q is already a field", name, a)
			case s.props[a] != nil:
				fail("field %q: alias %q is already a property", name, a)
			case s.aliases[a] != "" && s.aliases[a] != name:
				fail("field %q: alias %q already used by field %q", name, a, s.aliases[a])
			default:
				s.aliases[a] = name
			}
		}
	}

	s.views[DefaultName] = s.project(&projectionDecl{name: DefaultName}, true)
	s.viewOrder = []string{DefaultName}
	s.viewDecls = map[string]*projectionDecl{}
	var baseViews, baseSources []*projectionDecl
	if b.base != nil {
		baseViews = declsOf(b.base.viewOrder, b.base.viewDecls)
		baseSources = declsOf(b.base.sourceOrder, b.base.sourceDecls)
	}
	for _, d := range inherit(baseViews, b.views) {
		if msg := s.checkDecl("view", d, true); msg != nil {
			errs = append(errs, msg...)
			continue
		}
		s.views[d.name] = s.project(d, true)
		s.viewOrder = append(s.viewOrder, d.name)
		s.viewDecls[d.name] = d
	}

	s.sources[DefaultName] = s.project(&projectionDecl{name: DefaultName}, false)
	s.sourceOrder = []string{DefaultName}
	s.sourceDecls = map[string]*projectionDecl{}
	for _, d := range inherit(baseSources, b.sources) {
		if msg := s.checkDecl("source", d, false); msg != nil {
			errs = append(errs, msg...)
			continue
		}
		s.sources[d.name] = s.project(d, false)
		s.sourceOrder = append(s.sourceOrder, d.name)
		s.sourceDecls[d.name] = d
	}

	if len(errs) > 0 {
		return nil, &DeclarationError{Schema: b.name, Reasons: errs}
	}
	return s, nil
}

// MustBuild is like Build but panics on error.
func (b *SchemaBuilder) MustBuild() *Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

func declsOf(order []string, decls map[string]*projectionDecl) []*projectionDecl {
	out := make([]*projectionDecl, 0, len(order))
	for _, name := range order {
		if d, ok := decls[name]; ok {
			out = append(out, d)
		}
	}
	return out
}

// inherit returns the base declarations not redeclared by own, followed by own.
func inherit(base, own []*projectionDecl) []*projectionDecl {
	if len(base) == 0 {
		return own
	}
	redeclared := make(map[string]struct{}, len(own))
	for _, d := range own {
		redeclared[d.name] = struct{}{}
	}
	out := make([]*projectionDecl, 0, len(base)+len(own))
	for _, d := range base {
		if _, ok := redeclared[d.name]; !ok {
			out = append(out, d)
		}
	}
	return append(out, own...)
}

func (s *Schema) checkDecl(kind string, d *projectionDecl, isView bool) []string {
	var errs []string
	registered := s.sources
	if isView {
		registered = s.views
	}
	switch {
	case d.name == "":
		return []string{fmt.Sprintf("%s with empty name", kind)}
	case registered[d.name] != nil:
		return []string{fmt.Sprintf("duplicate %s %q", kind, d.name)}
	case d.keepSet && d.removeSet:
		return []string{fmt.Sprintf("%s %q: keep and remove lists are mutually exclusive", kind, d.name)}
	}
	for _, names := range [][]string{d.keep, d.remove} {
		for _, n := range names {
			if s.fields[n] != nil {
				continue
			}
			if s.props[n] != nil {
				if isView {
					continue
				}
				errs = append(errs, fmt.Sprintf("%s %q: %q is a property, not a field", kind, d.name, n))
				continue
			}
			errs = append(errs, fmt.Sprintf("%s %q: unknown field %q", kind, d.name, n))
		}
	}
	return errs
}

func (s *Schema) project(d *projectionDecl, isView bool) *projection {
	p := &projection{name: d.name, allowed: map[string]struct{}{}, filters: append([]Filter(nil), d.filters...)}
	switch {
	case d.keepSet:
		keep := make(map[string]struct{}, len(d.keep))
		for _, n := range d.keep {
			keep[n] = struct{}{}
		}
		for _, n := range s.order {
			if _, ok := keep[n]; ok {
				p.fields = append(p.fields, n)
			}
		}
		if isView {
			seen := map[string]struct{}{}
			for _, n := range d.keep {
				if _, dup := seen[n]; s.props[n] != nil && !dup {
					seen[n] = struct{}{}
					p.fields = append(p.fields, n)
				}
			}
		}
	case d.removeSet:
		drop := make(map[string]struct{}, len(d.remove))
		for _, n := range d.remove {
			drop[n] = struct{}{}
		}
		for _, n := range s.order {
			if _, ok := drop[n]; !ok {
				p.fields = append(p.fields, n)
			}
		}
	default:
		p.fields = append(p.fields, s.order...)
	}
	for _, n := range p.fields {
		p.allowed[n] = struct{}{}
	}
	return p
}

// Name returns the schema name.
func (s *Schema) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// Fields returns the field names in declaration order.
func (s *Schema) Fields() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

// Field returns the descriptor of a declared field.
func (s *Schema) Field(name string) (*FieldDescriptor, bool) {
	if s == nil {
		return nil, false
	}
	f, ok := s.fields[name]
	return f, ok
}

// Properties returns the property names in declaration order.
func (s *Schema) Properties() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.propOrder...)
}

// Views returns the registered view names, DefaultName first.
func (s *Schema) Views() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.viewOrder...)
}

// Sources returns the registered source names, DefaultName first.
func (s *Schema) Sources() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.sourceOrder...)
}

// HasView reports whether a view is registered.
func (s *Schema) HasView(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.views[name]
	return ok
}

// HasSource reports whether a source is registered.
func (s *Schema) HasSource(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.sources[name]
	return ok
}

// ViewFields returns the fields and properties a view exports, fields in
// declaration order first. Storage layers use it to build partial reads.
func (s *Schema) ViewFields(view string) ([]string, bool) {
	if s == nil {
		return nil, false
	}
	p, ok := s.views[view]
	if !ok {
		return nil, false
	}
	return append([]string(nil), p.fields...), true
}

// SourceFields returns the fields a source assigns, in declaration order.
func (s *Schema) SourceFields(source string) ([]string, bool) {
	if s == nil {
		return nil, false
	}
	p, ok := s.sources[source]
	if !ok {
		return nil, false
	}
	return append([]string(nil), p.fields...), true
}

// resolve maps a declared field name or alias to the field name.
func (s *Schema) resolve(key string) (string, bool) {
	if _, ok := s.fields[key]; ok {
		return key, true
	}
	name, ok := s.aliases[key]
	return name, ok
}
