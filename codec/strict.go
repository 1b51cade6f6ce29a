package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// DuplicateKeyError reports a key repeated within one mapping. Path is the
// JSON Pointer of the mapping holding the key. Line and Col are set for YAML
// input only.
type DuplicateKeyError struct {
	Key       string
	Path      string
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("codec: duplicate key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
	}
	return fmt.Sprintf("codec: duplicate key %q in %s", e.Key, e.Path)
}

// StrictJSON is JSON rejecting duplicate keys with a *DuplicateKeyError.
var StrictJSON Format = strictJSONFormat{}

// StrictYAML is YAML rejecting duplicate keys with a *DuplicateKeyError.
var StrictYAML Format = strictYAMLFormat{}

type strictJSONFormat struct{ jsonFormat }

func (strictJSONFormat) Name() string { return "json" }

func (strictJSONFormat) Unmarshal(data []byte) (map[string]any, error) {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	w := &jsonWalker{dec: dec}
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("codec: decode json: %w", err)
	}
	if tok == nil {
		return map[string]any{}, nil
	}
	if d, ok := tok.(j.Delim); !ok || d != '{' {
		return nil, errors.New("codec: decode json: expected an object")
	}
	m, err := w.object("")
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("codec: decode json: trailing data after object")
	}
	return m, nil
}

// jsonWalker builds plain values from the go-json token stream.
type jsonWalker struct {
	dec *j.Decoder
}

// object reads members until the closing brace; the opening one was consumed.
func (w *jsonWalker) object(path string) (map[string]any, error) {
	m := map[string]any{}
	for {
		tok, err := w.dec.Token()
		if err != nil {
			return nil, fmt.Errorf("codec: decode json: %w", err)
		}
		if d, ok := tok.(j.Delim); ok && d == '}' {
			return m, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("codec: decode json: expected key in %s", pathOrRoot(path))
		}
		if _, dup := m[key]; dup {
			return nil, &DuplicateKeyError{Key: key, Path: pathOrRoot(path)}
		}
		v, err := w.value(path + "/" + escapeToken(key))
		if err != nil {
			return nil, err
		}
		m[key] = v
	}
}

func (w *jsonWalker) array(path string) ([]any, error) {
	arr := []any{}
	for i := 0; ; i++ {
		if !w.dec.More() {
			if _, err := w.dec.Token(); err != nil {
				return nil, fmt.Errorf("codec: decode json: %w", err)
			}
			return arr, nil
		}
		v, err := w.value(path + "/" + strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

func (w *jsonWalker) value(path string) (any, error) {
	tok, err := w.dec.Token()
	if err != nil {
		return nil, fmt.Errorf("codec: decode json: %w", err)
	}
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			return w.object(path)
		case '[':
			return w.array(path)
		}
		return nil, fmt.Errorf("codec: decode json: unexpected %q at %s", v, path)
	case j.Number, string, bool, nil:
		return v, nil
	case float64:
		return j.Number(strconv.FormatFloat(v, 'g', -1, 64)), nil
	}
	return nil, fmt.Errorf("codec: decode json: unexpected token %T at %s", tok, path)
}

type strictYAMLFormat struct{ yamlFormat }

func (strictYAMLFormat) Name() string { return "yaml" }

func (strictYAMLFormat) Unmarshal(data []byte) (map[string]any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("codec: decode yaml: %w", err)
	}
	if len(root.Content) == 0 {
		return map[string]any{}, nil
	}
	v, err := nodeToInterfaceStrict(root.Content[0], "")
	if err != nil {
		return nil, err
	}
	if v == nil {
		return map[string]any{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("codec: decode yaml: expected a mapping, got %T", v)
	}
	return m, nil
}

func nodeToInterfaceStrict(n *yaml.Node, path string) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeToInterfaceStrict(n.Content[0], path)
	case yaml.AliasNode:
		return nodeToInterfaceStrict(n.Alias, path)
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		first := make(map[string][2]int, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			v := n.Content[i+1]
			key := k.Value
			if pos, dup := first[key]; dup {
				return nil, &DuplicateKeyError{Key: key, Path: pathOrRoot(path), FirstLine: pos[0], FirstCol: pos[1], Line: k.Line, Col: k.Column}
			}
			first[key] = [2]int{k.Line, k.Column}
			val, err := nodeToInterfaceStrict(v, path+"/"+escapeToken(key))
			if err != nil {
				return nil, err
			}
			m[key] = val
		}
		return m, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for i, c := range n.Content {
			v, err := nodeToInterfaceStrict(c, path+"/"+strconv.Itoa(i))
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return nil, nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err == nil {
				return b, nil
			}
			return n.Value, nil
		case "!!int":
			// int64 avoids overflow surprises; field types coerce later
			if i, err := strconv.ParseInt(n.Value, 0, 64); err == nil {
				return i, nil
			}
			return n.Value, nil
		case "!!float":
			var f float64
			if err := n.Decode(&f); err == nil {
				return f, nil
			}
			return n.Value, nil
		default:
			return n.Value, nil
		}
	}
	return nil, nil
}

func pathOrRoot(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

func escapeToken(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}
