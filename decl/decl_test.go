package decl_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nizox/dico"
	"github.com/nizox/dico/decl"
)

const usersYAML = `
name: OAuthToken
fields:
  - {name: consumer_secret, type: string, required: true, max_length: 32}
  - {name: active, type: bool, default: true}
views:
  - {name: public, keep: []}
---
name: User
fields:
  - {name: id, type: integer, required: true}
  - {name: name, type: string, aliases: [username]}
  - {name: role, type: string, choices: [admin, user], default: user}
  - {name: level, type: integer, choices: [1, 2, 3]}
  - {name: email, type: email}
  - {name: created, type: datetime, default_func: now}
  - name: tokens
    type: list
    max_items: 2
    items: {type: embedded, schema: OAuthToken}
views:
  - name: save
    filters:
      - rename: {from: id, to: _id}
  - {name: public, keep: [name, tokens]}
sources:
  - name: db
    filters:
      - rename: {from: _id, to: id}
`

func TestLoadYAML(t *testing.T) {
	r := decl.NewRegistry()
	schemas, err := r.LoadYAML(strings.NewReader(usersYAML))
	require.NoError(t, err)
	require.Len(t, schemas, 2)
	assert.Equal(t, []string{"OAuthToken", "User"}, r.Schemas())

	user, ok := r.Schema("User")
	require.True(t, ok)
	assert.Equal(t, []string{"id", "name", "role", "level", "email", "created", "tokens"}, user.Fields())
	assert.Equal(t, []string{dico.DefaultName, "save", "public"}, user.Views())

	u, err := user.From("db", map[string]any{
		"_id":      1,
		"username": "bob",
		"level":    2,
		"tokens":   []any{map[string]any{"consumer_secret": "s"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Get("name"))
	assert.Equal(t, "user", u.Get("role"))
	assert.IsType(t, time.Time{}, u.Get("created"))
	require.True(t, u.Validate(), "%v", u.Check())

	out, err := u.To("save")
	require.NoError(t, err)
	assert.Equal(t, 1, out["_id"])

	pub, err := u.To("public")
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{}}, pub["tokens"])

	require.NoError(t, u.Set("role", "root"))
	assert.False(t, u.Validate())
}

func TestLoadJSON(t *testing.T) {
	r := decl.NewRegistry()
	schemas, err := r.LoadJSON([]byte(`[
		{"name": "Base", "fields": [{"name": "id", "type": "uuid", "default_func": "uuid"}]},
		{"name": "Item", "extends": "Base", "fields": [
			{"name": "count", "type": "integer", "default": 3, "min": 0, "max": 10},
			{"name": "ratio", "type": "float", "choices": [0.5, 1]},
			{"name": "host", "type": "ip"}
		]}
	]`))
	require.NoError(t, err)
	require.Len(t, schemas, 2)

	item := schemas[1]
	assert.Equal(t, []string{"id", "count", "ratio", "host"}, item.Fields())
	d := item.New(map[string]any{"ratio": 1, "host": "::1"})
	assert.IsType(t, uuid.UUID{}, d.Get("id"))
	assert.Equal(t, int64(3), d.Get("count"))
	assert.True(t, d.Validate(), "%v", d.Check())

	require.NoError(t, d.Set("count", 11))
	assert.False(t, d.Validate())
}

func TestLoadJSON_SingleObject(t *testing.T) {
	r := decl.NewRegistry()
	schemas, err := r.LoadJSON([]byte(`{"name": "Tag", "fields": [{"name": "label", "type": "string", "pattern": "^[a-z]+$"}]}`))
	require.NoError(t, err)
	require.Len(t, schemas, 1)
	d := schemas[0].New(map[string]any{"label": "Nope"})
	assert.False(t, d.Validate())
}

func TestFormatFilters(t *testing.T) {
	r := decl.NewRegistry()
	r.RegisterFormat("unix", func(v any) any {
		if n, ok := v.(int); ok {
			return time.Unix(int64(n), 0).UTC()
		}
		return v
	})
	schemas, err := r.LoadYAML(strings.NewReader(`
name: Person
fields:
  - {name: birthday, type: datetime}
sources:
  - name: legacy
    filters:
      - format: {field: birthday, func: unix}
`))
	require.NoError(t, err)
	d, err := schemas[0].From("legacy", map[string]any{"birthday": 344646000})
	require.NoError(t, err)
	assert.Equal(t, time.Unix(344646000, 0).UTC(), d.Get("birthday"))
}

func TestRegisterSchemaAndType(t *testing.T) {
	r := decl.NewRegistry()
	point := dico.NewSchema("Point").Field("x", dico.Float()).Field("y", dico.Float()).MustBuild()
	require.NoError(t, r.RegisterSchema(point))
	assert.ErrorIs(t, r.RegisterSchema(point), decl.ErrDuplicateSchema)

	r.RegisterType("percent", func(spec decl.FieldSpec, _ *decl.Registry) (dico.FieldType, error) {
		if err := decl.CheckOptions(spec); err != nil {
			return nil, err
		}
		return dico.Float(dico.Min(0), dico.Max(100)), nil
	})
	schemas, err := r.LoadYAML(strings.NewReader(`
name: Shape
fields:
  - {name: center, type: embedded, schema: Point}
  - {name: fill, type: percent}
`))
	require.NoError(t, err)
	d := schemas[0].New(map[string]any{"center": map[string]any{"x": 1.0, "y": 2}, "fill": 50})
	assert.True(t, d.Validate())
	require.NoError(t, d.Set("fill", 150))
	assert.False(t, d.Validate())
}

func TestDeclarationErrors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want error
	}{
		{"unknown type", "name: A\nfields: [{name: x, type: nope}]", decl.ErrUnknownType},
		{"unknown schema", "name: A\nfields: [{name: x, type: embedded, schema: Missing}]", decl.ErrUnknownSchema},
		{"unknown base", "name: A\nextends: Missing\n", decl.ErrUnknownSchema},
		{"unknown default", "name: A\nfields: [{name: x, type: string, default_func: nope}]", decl.ErrUnknownDefault},
		{"unknown format", "name: A\nfields: [{name: x, type: string}]\nviews: [{name: v, filters: [{format: {field: x, func: nope}}]}]", decl.ErrUnknownFormat},
		{"foreign option", "name: A\nfields: [{name: x, type: integer, max_length: 3}]", decl.ErrInvalidFieldSpec},
		{"list without items", "name: A\nfields: [{name: x, type: list}]", decl.ErrInvalidFieldSpec},
		{"bad pattern", "name: A\nfields: [{name: x, type: string, pattern: '('}]", decl.ErrInvalidFieldSpec},
		{"both defaults", "name: A\nfields: [{name: x, type: string, default: a, default_func: now}]", decl.ErrInvalidFieldSpec},
		{"keep unknown field", "name: A\nfields: [{name: x, type: string}]\nviews: [{name: v, keep: [y]}]", dico.ErrDeclaration},
		{"duplicate schema", "name: A\n---\nname: A\n", decl.ErrDuplicateSchema},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := decl.NewRegistry().LoadYAML(strings.NewReader(c.yaml))
			assert.ErrorIs(t, err, c.want)
		})
	}

	_, err := decl.NewRegistry().LoadYAML(strings.NewReader("name: A\nfieldz: []\n"))
	assert.Error(t, err, "unknown keys are rejected")
	_, err = decl.NewRegistry().LoadJSON([]byte(`[{"name": "A", "fieldz": []}]`))
	assert.Error(t, err, "unknown keys are rejected")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	yml := filepath.Join(dir, "users.yaml")
	require.NoError(t, os.WriteFile(yml, []byte(usersYAML), 0o600))
	js := filepath.Join(dir, "tags.json")
	require.NoError(t, os.WriteFile(js, []byte(`{"name": "Tag", "fields": [{"name": "label", "type": "string"}]}`), 0o600))

	r := decl.NewRegistry()
	_, err := r.LoadFile(yml)
	require.NoError(t, err)
	_, err = r.LoadFile(js)
	require.NoError(t, err)
	assert.Equal(t, []string{"OAuthToken", "Tag", "User"}, r.Schemas())

	_, err = r.LoadFile(filepath.Join(dir, "schema.toml"))
	assert.Error(t, err)
}
