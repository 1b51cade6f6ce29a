package dico

import (
	"time"

	"github.com/google/uuid"

	js "github.com/nizox/dico/jsonschema"
)

// dateTimeLayouts are tried in order when coercing strings.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// DateTime accepts time.Time values and coerces ISO 8601 strings. Strings
// without an offset are read as UTC.
func DateTime() FieldType { return dateTimeType{} }

type dateTimeType struct{}

func (dateTimeType) Kind() Kind { return KindDateTime }

func (dateTimeType) Validate(v any) bool { return len(dateTimeType{}.Check(v, false)) == 0 }

func (dateTimeType) Check(v any, _ bool) Issues {
	switch v.(type) {
	case time.Time:
		return nil
	case string:
		return Issues{issueAt("/", CodeInvalidFormat, map[string]any{"format": "datetime"})}
	}
	return Issues{issueAt("/", CodeInvalidType, map[string]any{"expected": "datetime"})}
}

func (dateTimeType) Coerce(v any) any {
	s, ok := v.(string)
	if !ok {
		if p, ok := v.(*time.Time); ok && p != nil {
			return *p
		}
		return v
	}
	if t, ok := ParseDateTime(s); ok {
		return t
	}
	return v
}

func (dateTimeType) JSONSchema() *js.Schema { return &js.Schema{Type: "string", Format: "date-time"} }

// ParseDateTime parses the ISO 8601 forms accepted by DateTime.
func ParseDateTime(s string) (time.Time, bool) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// UUID accepts uuid.UUID values and coerces their string form.
func UUID() FieldType { return uuidType{} }

type uuidType struct{}

func (uuidType) Kind() Kind { return KindUUID }

func (uuidType) Validate(v any) bool { return len(uuidType{}.Check(v, false)) == 0 }

func (uuidType) Check(v any, _ bool) Issues {
	switch v.(type) {
	case uuid.UUID:
		return nil
	case string:
		return Issues{issueAt("/", CodeInvalidFormat, map[string]any{"format": "uuid"})}
	}
	return Issues{issueAt("/", CodeInvalidType, map[string]any{"expected": "uuid"})}
}

func (uuidType) Coerce(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if id, err := uuid.Parse(s); err == nil {
		return id
	}
	return v
}

func (uuidType) JSONSchema() *js.Schema { return &js.Schema{Type: "string", Format: "uuid"} }
