package mongo

import (
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nizox/dico"
)

// ToBSON exports d through view as a bson.M ready for the driver.
// UUID values are stored as binary subtype 4.
func ToBSON(d *dico.Document, view string, opts ...dico.ExportOption) (bson.M, error) {
	m, err := d.To(view, opts...)
	if err != nil {
		return nil, err
	}
	return toBSON(m).(bson.M), nil
}

// Marshal exports d through view and encodes it as a BSON document.
func Marshal(d *dico.Document, view string, opts ...dico.ExportOption) ([]byte, error) {
	m, err := ToBSON(d, view, opts...)
	if err != nil {
		return nil, err
	}
	b, err := bson.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("mongo: encode bson: %w", err)
	}
	return b, nil
}

// Unmarshal decodes a BSON document and builds a document of s through source.
func Unmarshal(s *dico.Schema, source string, data []byte) (*dico.Document, error) {
	m, err := decode(data)
	if err != nil {
		return nil, err
	}
	return s.From(source, m)
}

// Update decodes a BSON document and assigns it to d through source;
// assigned fields are marked modified.
func Update(d *dico.Document, source string, data []byte) error {
	m, err := decode(data)
	if err != nil {
		return err
	}
	return d.UpdateFrom(source, m)
}

// FromBSON builds a document of s through source from a decoded bson.M or
// bson.D, such as a cursor result.
func FromBSON(s *dico.Schema, source string, doc any) (*dico.Document, error) {
	m, ok := Normalize(doc).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("mongo: expected a BSON document, got %T", doc)
	}
	return s.From(source, m)
}

// SetUpdate builds the {$set: ...} update holding the modified fields of d
// exported through view. Required fields are not checked, so partially
// loaded documents can be saved. The second result is false when nothing
// was modified.
func SetUpdate(d *dico.Document, view string) (bson.D, bool, error) {
	m, err := ToBSON(d, view, dico.OnlyModified(), dico.Partial())
	if err != nil {
		return nil, false, err
	}
	if len(m) == 0 {
		return nil, false, nil
	}
	return bson.D{{Key: "$set", Value: m}}, true, nil
}

// Projection returns {field: 1} for every field exported by view, in
// declaration order, for reads that only load what the view needs.
// Properties are skipped; keys renamed by view filters are not reflected.
func Projection(s *dico.Schema, view string) (bson.D, error) {
	names, ok := s.ViewFields(view)
	if !ok {
		return nil, fmt.Errorf("%w: %q on schema %q", dico.ErrUnknownView, view, s.Name())
	}
	out := make(bson.D, 0, len(names))
	for _, n := range names {
		if _, isField := s.Field(n); !isField {
			continue
		}
		out = append(out, bson.E{Key: n, Value: 1})
	}
	return out, nil
}

func decode(data []byte) (map[string]any, error) {
	var raw bson.M
	if err := bson.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("mongo: decode bson: %w", err)
	}
	return Normalize(raw).(map[string]any), nil
}

// Normalize converts driver values into the plain forms dico field types
// accept: bson.M and bson.D become map[string]any, bson.A becomes []any,
// primitive.DateTime becomes a UTC time.Time and UUID binaries uuid.UUID.
func Normalize(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Normalize(e)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = Normalize(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Normalize(e)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Binary:
		if (t.Subtype == bson.TypeBinaryUUID || t.Subtype == bson.TypeBinaryUUIDOld) && len(t.Data) == 16 {
			id, err := uuid.FromBytes(t.Data)
			if err == nil {
				return id
			}
		}
		return t
	}
	return v
}

func toBSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(bson.M, len(t))
		for k, e := range t {
			out[k] = toBSON(e)
		}
		return out
	case []any:
		out := make(bson.A, len(t))
		for i, e := range t {
			out[i] = toBSON(e)
		}
		return out
	case uuid.UUID:
		return primitive.Binary{Subtype: bson.TypeBinaryUUID, Data: t[:]}
	}
	return v
}
