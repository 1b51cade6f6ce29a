package codec

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/nizox/dico"
)

// YAML is the YAML wire format. Decoded mappings are normalized to
// map[string]any; non-string keys are dropped.
var YAML Format = yamlFormat{}

type yamlFormat struct{}

func (yamlFormat) Name() string { return "yaml" }

func (yamlFormat) Marshal(m map[string]any) ([]byte, error) {
	b, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("codec: encode yaml: %w", err)
	}
	return b, nil
}

func (yamlFormat) Unmarshal(data []byte) (map[string]any, error) {
	var node any
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("codec: decode yaml: %w", err)
	}
	if node == nil {
		return map[string]any{}, nil
	}
	m := yamlAnyToStringMap(node)
	if m == nil {
		return nil, fmt.Errorf("codec: decode yaml: expected a mapping, got %T", node)
	}
	return m, nil
}

// MarshalYAML exports d through view and encodes it as YAML.
func MarshalYAML(d *dico.Document, view string, opts ...dico.ExportOption) ([]byte, error) {
	return encode(YAML, d, view, opts)
}

// UnmarshalYAML decodes a YAML mapping and builds a document of s through source.
func UnmarshalYAML(s *dico.Schema, source string, data []byte) (*dico.Document, error) {
	return decode(YAML, s, source, data)
}

// UpdateYAML decodes a YAML mapping and assigns it to d through source.
func UpdateYAML(d *dico.Document, source string, data []byte) error {
	return update(YAML, d, source, data)
}

// yamlAnyToStringMap converts YAML-decoded values (which may contain map[any]any)
// into JSON-like map[string]any recursively. Non-map roots return nil.
func yamlAnyToStringMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = yamlNormalizeValue(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = yamlNormalizeValue(vv)
		}
		return out
	default:
		return nil
	}
}

func yamlNormalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any, map[any]any:
		return yamlAnyToStringMap(t)
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = yamlNormalizeValue(t[i])
		}
		return arr
	default:
		return v
	}
}
