// Package decl builds dico schemas from declarative YAML or JSON documents,
// so document classes can live in configuration files.
//
//	name: User
//	fields:
//	  - {name: id, type: integer, required: true}
//	  - {name: email, type: email, max_length: 64}
//	  - {name: tokens, type: list, items: {type: embedded, schema: OAuthToken}}
//	views:
//	  - name: save
//	    filters:
//	      - rename: {from: id, to: _id}
//
// Schemas are registered in a Registry as they are built; embedded and
// extends references resolve against schemas registered earlier.
package decl

// SchemaSpec declares one schema.
type SchemaSpec struct {
	Name    string           `yaml:"name" json:"name"`
	Extends string           `yaml:"extends,omitempty" json:"extends,omitempty"`
	Fields  []FieldSpec      `yaml:"fields,omitempty" json:"fields,omitempty"`
	Views   []ProjectionSpec `yaml:"views,omitempty" json:"views,omitempty"`
	Sources []ProjectionSpec `yaml:"sources,omitempty" json:"sources,omitempty"`
}

// FieldSpec declares a field, or a list element type when used as Items.
// Options that do not apply to the field type are rejected.
type FieldSpec struct {
	Name        string   `yaml:"name,omitempty" json:"name,omitempty"`
	Type        string   `yaml:"type" json:"type"`
	Required    bool     `yaml:"required,omitempty" json:"required,omitempty"`
	Default     any      `yaml:"default,omitempty" json:"default,omitempty"`
	DefaultFunc string   `yaml:"default_func,omitempty" json:"default_func,omitempty"`
	Aliases     []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Choices     []any    `yaml:"choices,omitempty" json:"choices,omitempty"`

	// string types
	MinLength *int   `yaml:"min_length,omitempty" json:"min_length,omitempty"`
	MaxLength *int   `yaml:"max_length,omitempty" json:"max_length,omitempty"`
	Pattern   string `yaml:"pattern,omitempty" json:"pattern,omitempty"`

	// numbers
	Min *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty" json:"max,omitempty"`

	// list
	MinItems *int       `yaml:"min_items,omitempty" json:"min_items,omitempty"`
	MaxItems *int       `yaml:"max_items,omitempty" json:"max_items,omitempty"`
	Items    *FieldSpec `yaml:"items,omitempty" json:"items,omitempty"`

	// embedded
	Schema string `yaml:"schema,omitempty" json:"schema,omitempty"`
}

// ProjectionSpec declares a view or a source. A present but empty keep list
// keeps nothing; an absent one keeps everything.
type ProjectionSpec struct {
	Name    string       `yaml:"name" json:"name"`
	Keep    []string     `yaml:"keep" json:"keep"`
	Remove  []string     `yaml:"remove,omitempty" json:"remove,omitempty"`
	Filters []FilterSpec `yaml:"filters,omitempty" json:"filters,omitempty"`
}

// FilterSpec declares one filter; exactly one member must be set.
type FilterSpec struct {
	Rename *RenameSpec `yaml:"rename,omitempty" json:"rename,omitempty"`
	Format *FormatSpec `yaml:"format,omitempty" json:"format,omitempty"`
}

// RenameSpec is dico.RenameField(From, To).
type RenameSpec struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// FormatSpec is dico.FormatField(Field, fn) with fn looked up by Func in the
// registry.
type FormatSpec struct {
	Field string `yaml:"field" json:"field"`
	Func  string `yaml:"func" json:"func"`
}
