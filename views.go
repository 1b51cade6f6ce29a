package dico

import (
	"fmt"
	"sort"
)

type validationMode int

const (
	validateFull validationMode = iota
	validatePartial
	validateNone
)

type exportOptions struct {
	onlyModified bool
	mode         validationMode
}

// ExportOption configures ToDict and To.
type ExportOption func(*exportOptions)

// OnlyModified restricts the export to modified fields, for minimal update
// payloads. Properties are not exported.
func OnlyModified() ExportOption { return func(o *exportOptions) { o.onlyModified = true } }

// Partial validates with ValidatePartial semantics before exporting.
func Partial() ExportOption { return func(o *exportOptions) { o.mode = validatePartial } }

// SkipValidation exports without validating.
func SkipValidation() ExportOption { return func(o *exportOptions) { o.mode = validateNone } }

// ToDict exports through the default view.
func (d *Document) ToDict(opts ...ExportOption) (map[string]any, error) {
	return d.To(DefaultName, opts...)
}

// To exports d through the named view. The document is validated first
// unless Partial or SkipValidation is given; failure returns a
// *ValidationError. The result shares no storage with d.
func (d *Document) To(view string, opts ...ExportOption) (map[string]any, error) {
	p, ok := d.schema.views[view]
	if !ok {
		return nil, fmt.Errorf("%w: %q on schema %q", ErrUnknownView, view, d.schema.name)
	}
	var o exportOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.mode != validateNone {
		if iss := d.check(o.mode == validatePartial); len(iss) > 0 {
			logger().Debug().
				Str("schema", d.schema.name).
				Str("view", view).
				Int("issues", len(iss)).
				Msg("export rejected by validation")
			return nil, &ValidationError{Schema: d.schema.name, View: view, Issues: iss}
		}
	}
	out := make(map[string]any, len(p.fields))
	for _, name := range p.fields {
		f, isField := d.schema.fields[name]
		if !isField {
			if o.onlyModified {
				continue
			}
			if pv := d.schema.props[name](d); pv != nil {
				out[name] = pv
			}
			continue
		}
		if o.onlyModified && !d.IsModified(name) {
			continue
		}
		v, ok := d.values[name]
		if !ok || v == nil {
			continue
		}
		ev, err := exportValue(f.typ, v, view)
		if err != nil {
			return nil, err
		}
		out[name] = ev
	}
	return runFilters(p.filters, out), nil
}

// apply runs the import pipeline of source p: aliases are resolved, declared
// fields outside the projection dropped, filters run, then every projected
// field present is assigned. Unknown keys are ignored.
func (d *Document) apply(p *projection, data map[string]any, changed bool) {
	if len(data) == 0 && len(p.filters) == 0 {
		return
	}
	in := make(map[string]any, len(data))
	for k, v := range data {
		name, declared := d.schema.resolve(k)
		if !declared {
			in[k] = v
			continue
		}
		if !p.allows(name) {
			continue
		}
		if name != k {
			if _, direct := data[name]; direct {
				continue
			}
		}
		in[name] = v
	}
	in = runFilters(p.filters, in)

	consumed := make(map[string]struct{}, len(in))
	for _, name := range p.fields {
		f := d.schema.fields[name]
		v, ok := in[name]
		if ok {
			consumed[name] = struct{}{}
		} else {
			for _, a := range f.aliases {
				if v, ok = in[a]; ok {
					consumed[a] = struct{}{}
					break
				}
			}
		}
		if !ok || v == nil {
			continue
		}
		pv := prepareValue(f.typ, d, name, v)
		if pv == nil {
			continue
		}
		d.release(name, d.values[name], pv)
		d.values[name] = pv
		if changed {
			d.markModified(name)
		}
	}

	if len(consumed) == len(in) {
		return
	}
	ignored := make([]string, 0, len(in)-len(consumed))
	for k := range in {
		if _, ok := consumed[k]; !ok {
			ignored = append(ignored, k)
		}
	}
	sort.Strings(ignored)
	logger().Debug().
		Str("schema", d.schema.name).
		Str("source", p.name).
		Strs("keys", ignored).
		Msg("ignoring keys outside the source")
}
