package codec

import (
	"encoding"
	"time"
)

// wireValue converts exported document data into values every wire format
// encodes the same way: times become canonical RFC3339 strings and text
// marshalers (UUIDs, ObjectIDs) their text form.
func wireValue(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return formatRFC3339Canonical(t), nil
	case *time.Time:
		if t == nil {
			return nil, nil
		}
		return formatRFC3339Canonical(*t), nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			w, err := wireValue(e)
			if err != nil {
				return nil, err
			}
			out[k] = w
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			w, err := wireValue(e)
			if err != nil {
				return nil, err
			}
			out[i] = w
		}
		return out, nil
	case encoding.TextMarshaler:
		b, err := t.MarshalText()
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	return v, nil
}

func formatRFC3339Canonical(t time.Time) string {
	// Normalize to UTC and format using RFC3339Nano (Go trims trailing zeros)
	return t.UTC().Format(time.RFC3339Nano)
}
