package decl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nizox/dico"
)

var builtinTypes = map[string]TypeFactory{
	"bool":     simpleType(dico.Bool),
	"boolean":  simpleType(dico.Bool),
	"string":   stringType(dico.String),
	"ip":       stringType(dico.IPAddress),
	"url":      stringType(dico.URL),
	"email":    stringType(dico.Email),
	"integer":  numberType(dico.Integer),
	"float":    numberType(dico.Float),
	"datetime": simpleType(dico.DateTime),
	"uuid":     simpleType(dico.UUID),
	"list":     listType,
	"embedded": embeddedType,
}

type optionGroup int

const (
	stringOptions optionGroup = 1 << iota
	numberOptions
	listOptions
	embeddedOptions
)

// CheckOptions rejects every type specific option set on spec. Custom
// factories for types without options call it first.
func CheckOptions(spec FieldSpec) error { return checkOptions(spec, 0) }

func checkOptions(spec FieldSpec, allowed optionGroup) error {
	var bad []string
	if allowed&stringOptions == 0 {
		if spec.MinLength != nil {
			bad = append(bad, "min_length")
		}
		if spec.MaxLength != nil {
			bad = append(bad, "max_length")
		}
		if spec.Pattern != "" {
			bad = append(bad, "pattern")
		}
	}
	if allowed&numberOptions == 0 {
		if spec.Min != nil {
			bad = append(bad, "min")
		}
		if spec.Max != nil {
			bad = append(bad, "max")
		}
	}
	if allowed&listOptions == 0 {
		if spec.MinItems != nil {
			bad = append(bad, "min_items")
		}
		if spec.MaxItems != nil {
			bad = append(bad, "max_items")
		}
		if spec.Items != nil {
			bad = append(bad, "items")
		}
	}
	if allowed&embeddedOptions == 0 && spec.Schema != "" {
		bad = append(bad, "schema")
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: type %q does not accept %s", ErrInvalidFieldSpec, spec.Type, strings.Join(bad, ", "))
	}
	return nil
}

func simpleType(ctor func() dico.FieldType) TypeFactory {
	return func(spec FieldSpec, _ *Registry) (dico.FieldType, error) {
		if err := checkOptions(spec, 0); err != nil {
			return nil, err
		}
		return ctor(), nil
	}
}

func stringType(ctor func(...dico.StringOption) dico.FieldType) TypeFactory {
	return func(spec FieldSpec, _ *Registry) (dico.FieldType, error) {
		if err := checkOptions(spec, stringOptions); err != nil {
			return nil, err
		}
		var opts []dico.StringOption
		if spec.MinLength != nil {
			opts = append(opts, dico.MinLength(*spec.MinLength))
		}
		if spec.MaxLength != nil {
			opts = append(opts, dico.MaxLength(*spec.MaxLength))
		}
		if spec.Pattern != "" {
			re, err := regexp.Compile(spec.Pattern)
			if err != nil {
				return nil, fmt.Errorf("%w: pattern: %v", ErrInvalidFieldSpec, err)
			}
			opts = append(opts, dico.Pattern(re))
		}
		return ctor(opts...), nil
	}
}

func numberType(ctor func(...dico.NumberOption) dico.FieldType) TypeFactory {
	return func(spec FieldSpec, _ *Registry) (dico.FieldType, error) {
		if err := checkOptions(spec, numberOptions); err != nil {
			return nil, err
		}
		var opts []dico.NumberOption
		if spec.Min != nil {
			opts = append(opts, dico.Min(*spec.Min))
		}
		if spec.Max != nil {
			opts = append(opts, dico.Max(*spec.Max))
		}
		return ctor(opts...), nil
	}
}

func listType(spec FieldSpec, r *Registry) (dico.FieldType, error) {
	if err := checkOptions(spec, listOptions); err != nil {
		return nil, err
	}
	if spec.Items == nil {
		return nil, fmt.Errorf("%w: list requires items", ErrInvalidFieldSpec)
	}
	elem, err := r.FieldType(*spec.Items)
	if err != nil {
		return nil, fmt.Errorf("items: %w", err)
	}
	var opts []dico.ListOption
	if spec.MinItems != nil {
		opts = append(opts, dico.MinItems(*spec.MinItems))
	}
	if spec.MaxItems != nil {
		opts = append(opts, dico.MaxItems(*spec.MaxItems))
	}
	return dico.List(elem, opts...), nil
}

func embeddedType(spec FieldSpec, r *Registry) (dico.FieldType, error) {
	if err := checkOptions(spec, embeddedOptions); err != nil {
		return nil, err
	}
	s, ok := r.Schema(spec.Schema)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSchema, spec.Schema)
	}
	return dico.Embedded(s), nil
}
