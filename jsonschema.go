package dico

import (
	"fmt"

	js "github.com/nizox/dico/jsonschema"
)

// JSONSchema describes the data a view exports, before view filters run
// (filters may rename keys). Properties are described as unconstrained.
func (s *Schema) JSONSchema(view string) (*js.Schema, error) {
	p, ok := s.views[view]
	if !ok {
		return nil, fmt.Errorf("%w: %q on schema %q", ErrUnknownView, view, s.name)
	}
	out := &js.Schema{Title: s.name, Type: "object", Properties: make(map[string]*js.Schema, len(p.fields))}
	for _, name := range p.fields {
		f, isField := s.fields[name]
		if !isField {
			out.Properties[name] = &js.Schema{}
			continue
		}
		out.Properties[name] = f.jsonSchema(view)
		if f.required {
			out.Required = append(out.Required, name)
		}
	}
	return out, nil
}
