package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	j "github.com/goccy/go-json"

	"github.com/nizox/dico"
)

// JSON is the JSON wire format. Numbers decode as json.Number so integer
// fields keep their precision.
var JSON Format = jsonFormat{}

type jsonFormat struct{}

func (jsonFormat) Name() string { return "json" }

func (jsonFormat) Marshal(m map[string]any) ([]byte, error) {
	b, err := j.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("codec: encode json: %w", err)
	}
	return b, nil
}

func (jsonFormat) Unmarshal(data []byte) (map[string]any, error) {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("codec: decode json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("codec: decode json: trailing data after object")
	}
	return m, nil
}

// MarshalJSON exports d through view and encodes it as JSON.
func MarshalJSON(d *dico.Document, view string, opts ...dico.ExportOption) ([]byte, error) {
	return encode(JSON, d, view, opts)
}

// UnmarshalJSON decodes a JSON object and builds a document of s through source.
func UnmarshalJSON(s *dico.Schema, source string, data []byte) (*dico.Document, error) {
	return decode(JSON, s, source, data)
}

// UpdateJSON decodes a JSON object and assigns it to d through source.
func UpdateJSON(d *dico.Document, source string, data []byte) error {
	return update(JSON, d, source, data)
}
