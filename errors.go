package dico

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes
const (
	CodeInvalidType   = "invalid_type"
	CodeRequired      = "required"
	CodeTooShort      = "too_short"
	CodeTooLong       = "too_long"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodePattern       = "pattern"
	CodeInvalidEnum   = "invalid_enum"
	CodeInvalidFormat = "invalid_format"
	// CodeInvalidValue is reported for custom field types that only
	// implement the boolean Validate contract.
	CodeInvalidValue = "invalid_value"
)

// Sentinel errors. Typed errors below unwrap to them so callers can use
// errors.Is regardless of the concrete error.
var (
	ErrUnknownField  = errors.New("dico: unknown field")
	ErrUnknownView   = errors.New("dico: unknown view")
	ErrUnknownSource = errors.New("dico: unknown source")
	ErrNotList       = errors.New("dico: field is not a list")
	ErrValidation    = errors.New("dico: validation failed")
	ErrDeclaration   = errors.New("dico: invalid declaration")
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /tokens/1/consumer_secret).
	Code    string // One of the codes listed above.
	Message string
	// Params carries structured parameters (e.g., {"max": 32, "got": 40}).
	Params map[string]any
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. too_long at /name
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// ValidationError is returned by export operations when the document does not
// validate. It matches ErrValidation and carries the Issues found.
type ValidationError struct {
	Schema string
	View   string
	Issues Issues
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("dico: %s view %q: validation failed: %s", e.Schema, e.View, e.Issues.Error())
}

// Unwrap exposes both ErrValidation and the Issues to errors.Is / errors.As.
func (e *ValidationError) Unwrap() []error { return []error{ErrValidation, e.Issues} }

// DeclarationError reports a malformed schema declaration. The schema it
// belongs to is never built.
type DeclarationError struct {
	Schema  string
	Reasons []string
}

func (e *DeclarationError) Error() string {
	return fmt.Sprintf("dico: schema %q: %s", e.Schema, strings.Join(e.Reasons, "; "))
}

func (e *DeclarationError) Unwrap() error { return ErrDeclaration }
