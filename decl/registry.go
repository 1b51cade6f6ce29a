package decl

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nizox/dico"
)

var (
	ErrUnknownType      = errors.New("decl: unknown field type")
	ErrUnknownSchema    = errors.New("decl: unknown schema")
	ErrUnknownFormat    = errors.New("decl: unknown format function")
	ErrUnknownDefault   = errors.New("decl: unknown default function")
	ErrDuplicateSchema  = errors.New("decl: schema already registered")
	ErrInvalidFieldSpec = errors.New("decl: invalid field declaration")
)

// TypeFactory builds a field type from its declaration. Factories resolve
// nested declarations (list items, embedded schemas) through r.
type TypeFactory func(spec FieldSpec, r *Registry) (dico.FieldType, error)

// Registry resolves the names used by declarations: field types, schemas,
// format functions and default factories. A Registry is safe for concurrent
// use.
type Registry struct {
	mu       sync.RWMutex
	types    map[string]TypeFactory
	schemas  map[string]*dico.Schema
	formats  map[string]func(any) any
	defaults map[string]func() any
}

// NewRegistry returns a registry holding the built-in field types and the
// "now" and "uuid" default factories.
func NewRegistry() *Registry {
	r := &Registry{
		types:    map[string]TypeFactory{},
		schemas:  map[string]*dico.Schema{},
		formats:  map[string]func(any) any{},
		defaults: map[string]func() any{},
	}
	for name, f := range builtinTypes {
		r.types[name] = f
	}
	r.defaults["now"] = func() any { return time.Now().UTC() }
	r.defaults["uuid"] = func() any { return uuid.New() }
	return r
}

// RegisterType adds or replaces a field type factory.
func (r *Registry) RegisterType(name string, f TypeFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[name] = f
}

// RegisterFormat adds or replaces a format function for format filters.
func (r *Registry) RegisterFormat(name string, fn func(any) any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formats[name] = fn
}

// RegisterDefault adds or replaces a default factory for default_func.
func (r *Registry) RegisterDefault(name string, fn func() any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaults[name] = fn
}

// RegisterSchema makes a schema built in code available to declarations.
func (r *Registry) RegisterSchema(s *dico.Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.schemas[s.Name()]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateSchema, s.Name())
	}
	r.schemas[s.Name()] = s
	return nil
}

// Schema returns a registered schema.
func (r *Registry) Schema(name string) (*dico.Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[name]
	return s, ok
}

// Schemas returns the registered schema names, sorted.
func (r *Registry) Schemas() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) typeFactory(name string) (TypeFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.types[name]
	return f, ok
}

func (r *Registry) format(name string) (func(any) any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.formats[name]
	return fn, ok
}

func (r *Registry) defaultFunc(name string) (func() any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.defaults[name]
	return fn, ok
}

// FieldType builds the field type declared by spec.
func (r *Registry) FieldType(spec FieldSpec) (dico.FieldType, error) {
	f, ok := r.typeFactory(spec.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, spec.Type)
	}
	return f(spec, r)
}

// Build builds the schema declared by spec and registers it.
func (r *Registry) Build(spec SchemaSpec) (*dico.Schema, error) {
	if _, dup := r.Schema(spec.Name); dup {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateSchema, spec.Name)
	}
	b := dico.NewSchema(spec.Name)
	if spec.Extends != "" {
		base, ok := r.Schema(spec.Extends)
		if !ok {
			return nil, fmt.Errorf("schema %q extends %w: %q", spec.Name, ErrUnknownSchema, spec.Extends)
		}
		b.Extends(base)
	}
	for _, fs := range spec.Fields {
		typ, opts, err := r.field(fs)
		if err != nil {
			return nil, fmt.Errorf("schema %q: field %q: %w", spec.Name, fs.Name, err)
		}
		b.Field(fs.Name, typ, opts...)
	}
	for _, ps := range spec.Views {
		opts, err := r.projection(ps)
		if err != nil {
			return nil, fmt.Errorf("schema %q: view %q: %w", spec.Name, ps.Name, err)
		}
		b.View(ps.Name, opts...)
	}
	for _, ps := range spec.Sources {
		opts, err := r.projection(ps)
		if err != nil {
			return nil, fmt.Errorf("schema %q: source %q: %w", spec.Name, ps.Name, err)
		}
		b.Source(ps.Name, opts...)
	}
	s, err := b.Build()
	if err != nil {
		return nil, err
	}
	if err := r.RegisterSchema(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Registry) field(fs FieldSpec) (dico.FieldType, []dico.FieldOption, error) {
	typ, err := r.FieldType(fs)
	if err != nil {
		return nil, nil, err
	}
	var opts []dico.FieldOption
	if fs.Required {
		opts = append(opts, dico.Required())
	}
	switch {
	case fs.Default != nil && fs.DefaultFunc != "":
		return nil, nil, fmt.Errorf("%w: default and default_func are mutually exclusive", ErrInvalidFieldSpec)
	case fs.Default != nil:
		opts = append(opts, dico.Default(fs.Default))
	case fs.DefaultFunc != "":
		fn, ok := r.defaultFunc(fs.DefaultFunc)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownDefault, fs.DefaultFunc)
		}
		opts = append(opts, dico.DefaultFunc(fn))
	}
	if len(fs.Aliases) > 0 {
		opts = append(opts, dico.Aliases(fs.Aliases...))
	}
	if len(fs.Choices) > 0 {
		opts = append(opts, dico.Choices(fs.Choices...))
	}
	return typ, opts, nil
}

func (r *Registry) projection(ps ProjectionSpec) ([]dico.ProjectionOption, error) {
	var opts []dico.ProjectionOption
	if ps.Keep != nil {
		opts = append(opts, dico.Keep(ps.Keep...))
	}
	if ps.Remove != nil {
		opts = append(opts, dico.Remove(ps.Remove...))
	}
	for i, f := range ps.Filters {
		switch {
		case f.Rename != nil && f.Format != nil:
			return nil, fmt.Errorf("filter %d: rename and format are mutually exclusive", i)
		case f.Rename != nil:
			opts = append(opts, dico.Filters(dico.RenameField(f.Rename.From, f.Rename.To)))
		case f.Format != nil:
			fn, ok := r.format(f.Format.Func)
			if !ok {
				return nil, fmt.Errorf("filter %d: %w: %q", i, ErrUnknownFormat, f.Format.Func)
			}
			opts = append(opts, dico.Filters(dico.FormatField(f.Format.Field, fn)))
		default:
			return nil, fmt.Errorf("filter %d: empty filter", i)
		}
	}
	return opts, nil
}
