package dico

import (
	"encoding/json"
	"net/netip"
	"reflect"
	"regexp"
	"unicode/utf8"

	js "github.com/nizox/dico/jsonschema"
)

var (
	urlPattern = regexp.MustCompile(`(?i)^https?://` +
		`(?:(?:[A-Z0-9](?:[A-Z0-9-]{0,61}[A-Z0-9])?\.)+[A-Z]{2,6}\.?|` +
		`localhost|` +
		`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
		`(?::\d+)?` +
		`(?:/?|[/?]\S+)$`)

	emailPattern = regexp.MustCompile(`(?i)` +
		// dot-atom
		"(^[-!#$%&'*+/=?^_`{}|~0-9A-Z]+(\\.[-!#$%&'*+/=?^_`{}|~0-9A-Z]+)*" +
		// quoted-string
		`|^"([\001-\010\013\014\016-\037!#-\[\]-\177]|\\[\001-\011\013\014\016-\177])*"` +
		// domain
		`)@(?:[A-Z0-9](?:[A-Z0-9-]{0,61}[A-Z0-9])?\.)+[A-Z]{2,6}\.?$`)
)

// Bool returns the boolean field type.
func Bool() FieldType { return boolType{} }

type boolType struct{}

func (boolType) Kind() Kind { return KindBool }

func (boolType) Validate(v any) bool { return len(boolType{}.Check(v, false)) == 0 }

func (boolType) Check(v any, _ bool) Issues {
	if v != nil && reflect.ValueOf(v).Kind() == reflect.Bool {
		return nil
	}
	return Issues{issueAt("/", CodeInvalidType, map[string]any{"expected": "boolean"})}
}

func (boolType) JSONSchema() *js.Schema { return &js.Schema{Type: "boolean"} }

// StringOption configures string based field types.
type StringOption func(*stringType)

// MinLength sets the minimum number of characters.
func MinLength(n int) StringOption { return func(t *stringType) { t.minLength = n } }

// MaxLength sets the maximum number of characters.
func MaxLength(n int) StringOption { return func(t *stringType) { t.maxLength = n } }

// Pattern requires values to match re. The empty string is exempt when the
// field is not required.
func Pattern(re *regexp.Regexp) StringOption { return func(t *stringType) { t.pattern = re } }

// PatternString compiles expr once and behaves like Pattern. It panics when
// expr is not a valid regular expression.
func PatternString(expr string) StringOption {
	re := regexp.MustCompile(expr)
	return Pattern(re)
}

type stringType struct {
	kind      Kind
	minLength int
	maxLength int
	pattern   *regexp.Regexp
	format    string
	ip        bool
}

func newStringType(kind Kind, opts []StringOption) *stringType {
	t := &stringType{kind: kind, minLength: -1, maxLength: -1}
	for _, o := range opts {
		if o != nil {
			o(t)
		}
	}
	return t
}

// String returns the string field type.
func String(opts ...StringOption) FieldType { return newStringType(KindString, opts) }

// IPAddress accepts IPv4 and IPv6 literals.
func IPAddress(opts ...StringOption) FieldType {
	t := newStringType(KindIPAddress, opts)
	t.ip = true
	t.format = "ip"
	return t
}

// URL accepts http and https URLs.
func URL(opts ...StringOption) FieldType {
	t := newStringType(KindURL, opts)
	t.pattern = urlPattern
	t.format = "uri"
	return t
}

// Email accepts e-mail addresses.
func Email(opts ...StringOption) FieldType {
	t := newStringType(KindEmail, opts)
	t.pattern = emailPattern
	t.format = "email"
	return t
}

func (t *stringType) Kind() Kind { return t.kind }

func (t *stringType) Validate(v any) bool { return len(t.Check(v, false)) == 0 }

func (t *stringType) Check(v any, required bool) Issues {
	s, ok := asString(v)
	if !ok {
		return Issues{issueAt("/", CodeInvalidType, map[string]any{"expected": "string"})}
	}
	n := utf8.RuneCountInString(s)
	if t.maxLength >= 0 && n > t.maxLength {
		return Issues{issueAt("/", CodeTooLong, map[string]any{"max": t.maxLength, "got": n})}
	}
	if t.minLength >= 0 && n < t.minLength {
		return Issues{issueAt("/", CodeTooShort, map[string]any{"min": t.minLength, "got": n})}
	}
	if s == "" && !required && (t.pattern != nil || t.ip) {
		return nil
	}
	if t.ip {
		if _, err := netip.ParseAddr(s); err != nil {
			return Issues{issueAt("/", CodeInvalidFormat, map[string]any{"format": "ip address"})}
		}
		return nil
	}
	if t.pattern != nil && !t.pattern.MatchString(s) {
		if t.format != "" {
			return Issues{issueAt("/", CodeInvalidFormat, map[string]any{"format": t.format})}
		}
		return Issues{issueAt("/", CodePattern, map[string]any{"pattern": t.pattern.String()})}
	}
	return nil
}

func (t *stringType) JSONSchema() *js.Schema {
	s := &js.Schema{Type: "string", Format: t.format}
	if t.minLength >= 0 {
		n := t.minLength
		s.MinLength = &n
	}
	if t.maxLength >= 0 {
		n := t.maxLength
		s.MaxLength = &n
	}
	if t.pattern != nil && t.format == "" {
		s.Pattern = t.pattern.String()
	}
	return s
}

// NumberOption configures numeric field types.
type NumberOption func(*numberType)

// Min sets the inclusive lower bound.
func Min(x float64) NumberOption { return func(t *numberType) { t.min = &x } }

// Max sets the inclusive upper bound.
func Max(x float64) NumberOption { return func(t *numberType) { t.max = &x } }

type numberType struct {
	kind Kind
	min  *float64
	max  *float64
}

func newNumberType(kind Kind, opts []NumberOption) *numberType {
	t := &numberType{kind: kind}
	for _, o := range opts {
		if o != nil {
			o(t)
		}
	}
	return t
}

// Integer accepts any Go integer kind.
func Integer(opts ...NumberOption) FieldType { return newNumberType(KindInteger, opts) }

// Float accepts any Go integer or float kind.
func Float(opts ...NumberOption) FieldType { return newNumberType(KindFloat, opts) }

func (t *numberType) Kind() Kind { return t.kind }

func (t *numberType) Validate(v any) bool { return len(t.Check(v, false)) == 0 }

func (t *numberType) Check(v any, _ bool) Issues {
	var (
		f  float64
		ok bool
	)
	if t.kind == KindInteger {
		f, ok = asInteger(v)
	} else {
		f, ok = asNumber(v)
	}
	if !ok {
		return Issues{issueAt("/", CodeInvalidType, map[string]any{"expected": string(t.kind)})}
	}
	if t.min != nil && f < *t.min {
		return Issues{issueAt("/", CodeTooSmall, map[string]any{"min": *t.min, "got": f})}
	}
	if t.max != nil && f > *t.max {
		return Issues{issueAt("/", CodeTooBig, map[string]any{"max": *t.max, "got": f})}
	}
	return nil
}

// Coerce converts json.Number produced by decoders.
func (t *numberType) Coerce(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if t.kind == KindInteger {
		if i, err := n.Int64(); err == nil {
			return i
		}
		return v
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return v
}

func (t *numberType) JSONSchema() *js.Schema {
	s := &js.Schema{Type: "number", Minimum: t.min, Maximum: t.max}
	if t.kind == KindInteger {
		s.Type = "integer"
	}
	return s
}
