package decl

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	j "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/nizox/dico"
)

// LoadYAML builds every schema of a multi-document YAML stream, one schema
// per document, in stream order. Unknown keys are rejected.
func (r *Registry) LoadYAML(rd io.Reader) ([]*dico.Schema, error) {
	dec := yaml.NewDecoder(rd)
	dec.KnownFields(true)
	var out []*dico.Schema
	for {
		var spec SchemaSpec
		if err := dec.Decode(&spec); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, fmt.Errorf("decl: decode yaml document %d: %w", len(out), err)
		}
		if spec.Name == "" && len(spec.Fields) == 0 {
			// empty document
			continue
		}
		normalizeSpec(&spec)
		s, err := r.Build(spec)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
}

// LoadJSON builds the schemas of a JSON array of declarations, in order.
// A single object declares a single schema.
func (r *Registry) LoadJSON(data []byte) ([]*dico.Schema, error) {
	var specs []SchemaSpec
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var one SchemaSpec
		if err := decodeJSON(trimmed, &one); err != nil {
			return nil, err
		}
		specs = []SchemaSpec{one}
	} else if err := decodeJSON(trimmed, &specs); err != nil {
		return nil, err
	}
	out := make([]*dico.Schema, 0, len(specs))
	for i := range specs {
		normalizeSpec(&specs[i])
		s, err := r.Build(specs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// LoadFile loads a declaration file, choosing the decoder by extension
// (.yaml, .yml or .json).
func (r *Registry) LoadFile(path string) ([]*dico.Schema, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return r.LoadYAML(f)
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return r.LoadJSON(data)
	}
	return nil, fmt.Errorf("decl: %s: unsupported file extension", path)
}

func decodeJSON(data []byte, v any) error {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decl: decode json: %w", err)
	}
	return nil
}

// normalizeSpec turns decoded literals (defaults and choices) into the values
// field types expect: json.Number into int64 or float64, YAML mappings into
// map[string]any.
func normalizeSpec(spec *SchemaSpec) {
	for i := range spec.Fields {
		normalizeField(&spec.Fields[i])
	}
}

func normalizeField(fs *FieldSpec) {
	fs.Default = normalizeLiteral(fs.Default)
	for i, c := range fs.Choices {
		fs.Choices[i] = normalizeLiteral(c)
	}
	if fs.Items != nil {
		normalizeField(fs.Items)
	}
}

func normalizeLiteral(v any) any {
	switch t := v.(type) {
	case j.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalizeLiteral(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			if ks, ok := k.(string); ok {
				out[ks] = normalizeLiteral(e)
			}
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeLiteral(e)
		}
		return out
	}
	return v
}
