// Package codec encodes dico documents to wire formats through views and
// decodes them back through sources.
//
// Encoding exports the document (validating it like To does) then marshals the
// mapping; decoding unmarshals to a mapping and imports it. Type conversion
// from wire values (numbers, RFC3339 strings, UUID strings) is left to the
// field types' coercion.
package codec

import (
	"errors"
	"fmt"

	"github.com/nizox/dico"
)

// ErrSchemaMismatch is returned when a Codec is given a document of another
// schema.
var ErrSchemaMismatch = errors.New("codec: document schema mismatch")

// Format converts plain mappings to and from one wire format.
type Format interface {
	Name() string
	Marshal(m map[string]any) ([]byte, error)
	Unmarshal(data []byte) (map[string]any, error)
}

// Codec binds a schema to a wire format, an export view and an import source.
type Codec struct {
	schema *dico.Schema
	format Format
	view   string
	source string
}

// Option configures a Codec.
type Option func(*Codec)

// WithView selects the view used by Encode. Default: dico.DefaultName.
func WithView(name string) Option { return func(c *Codec) { c.view = name } }

// WithSource selects the source used by Decode and Update. Default: dico.DefaultName.
func WithSource(name string) Option { return func(c *Codec) { c.source = name } }

// New returns a Codec for documents of s. Unknown view or source names are
// reported by New rather than on first use.
func New(s *dico.Schema, f Format, opts ...Option) (*Codec, error) {
	c := &Codec{schema: s, format: f, view: dico.DefaultName, source: dico.DefaultName}
	for _, o := range opts {
		if o != nil {
			o(c)
		}
	}
	if !s.HasView(c.view) {
		return nil, fmt.Errorf("%w: %q on schema %q", dico.ErrUnknownView, c.view, s.Name())
	}
	if !s.HasSource(c.source) {
		return nil, fmt.Errorf("%w: %q on schema %q", dico.ErrUnknownSource, c.source, s.Name())
	}
	return c, nil
}

// Format returns the wire format.
func (c *Codec) Format() Format { return c.format }

// Decode builds a new document from data.
func (c *Codec) Decode(data []byte) (*dico.Document, error) {
	return decode(c.format, c.schema, c.source, data)
}

// Update assigns data to d; assigned fields are marked modified.
func (c *Codec) Update(d *dico.Document, data []byte) error {
	if d.Schema() != c.schema {
		return fmt.Errorf("%w: want %q, got %q", ErrSchemaMismatch, c.schema.Name(), d.Schema().Name())
	}
	return update(c.format, d, c.source, data)
}

// Encode exports d through the codec view and marshals it.
func (c *Codec) Encode(d *dico.Document, opts ...dico.ExportOption) ([]byte, error) {
	if d.Schema() != c.schema {
		return nil, fmt.Errorf("%w: want %q, got %q", ErrSchemaMismatch, c.schema.Name(), d.Schema().Name())
	}
	return encode(c.format, d, c.view, opts)
}

func encode(f Format, d *dico.Document, view string, opts []dico.ExportOption) ([]byte, error) {
	m, err := d.To(view, opts...)
	if err != nil {
		return nil, err
	}
	w, err := wireValue(m)
	if err != nil {
		return nil, fmt.Errorf("codec: %s: %w", f.Name(), err)
	}
	return f.Marshal(w.(map[string]any))
}

func decode(f Format, s *dico.Schema, source string, data []byte) (*dico.Document, error) {
	m, err := f.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return s.From(source, m)
}

func update(f Format, d *dico.Document, source string, data []byte) error {
	m, err := f.Unmarshal(data)
	if err != nil {
		return err
	}
	return d.UpdateFrom(source, m)
}
