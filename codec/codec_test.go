package codec_test

import (
	"testing"
	"time"

	j "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/nizox/dico"
	"github.com/nizox/dico/codec"
)

var (
	tokenSchema = dico.NewSchema("OAuthToken").
			Field("consumer_secret", dico.String(), dico.Required()).
			MustBuild()

	userSchema = dico.NewSchema("User").
			Field("id", dico.Integer(), dico.Required()).
			Field("name", dico.String()).
			Field("score", dico.Float()).
			Field("created", dico.DateTime()).
			Field("uid", dico.UUID()).
			Field("tokens", dico.List(dico.Embedded(tokenSchema))).
			View("save", dico.Filters(dico.RenameField("id", "_id"))).
			Source("db", dico.Filters(dico.RenameField("_id", "id"))).
			MustBuild()
)

func newUser(t *testing.T) *dico.Document {
	t.Helper()
	return userSchema.New(map[string]any{
		"id":      7,
		"name":    "Bob",
		"score":   1.5,
		"created": time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		"uid":     uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		"tokens":  []any{map[string]any{"consumer_secret": "s"}},
	})
}

func TestJSON_RoundTripThroughViewAndSource(t *testing.T) {
	u := newUser(t)

	data, err := codec.MarshalJSON(u, "save")
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, j.Unmarshal(data, &raw))
	assert.Contains(t, raw, "_id")
	assert.NotContains(t, raw, "id")
	assert.Equal(t, "2024-01-02T03:04:05Z", raw["created"])
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", raw["uid"])

	back, err := codec.UnmarshalJSON(userSchema, "db", data)
	require.NoError(t, err)
	assert.Equal(t, int64(7), back.Get("id"))
	assert.Equal(t, 1.5, back.Get("score"))
	assert.Equal(t, u.Get("uid"), back.Get("uid"))
	assert.True(t, back.Get("created").(time.Time).Equal(u.Get("created").(time.Time)))
	assert.True(t, back.Validate())
	assert.Empty(t, back.ModifiedFields())

	tokens := back.Get("tokens").([]any)
	require.Len(t, tokens, 1)
	assert.Equal(t, "s", tokens[0].(*dico.Document).Get("consumer_secret"))
}

func TestJSON_KeepsIntegerPrecision(t *testing.T) {
	d, err := codec.UnmarshalJSON(userSchema, dico.DefaultName, []byte(`{"id": 9007199254740993}`))
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), d.Get("id"))
}

func TestJSON_UpdateMarksModified(t *testing.T) {
	u := newUser(t)
	require.NoError(t, codec.UpdateJSON(u, "db", []byte(`{"_id": 8, "unknown": true}`)))
	assert.Equal(t, int64(8), u.Get("id"))
	assert.Equal(t, []string{"id"}, u.ModifiedFields())

	data, err := codec.MarshalJSON(u, "save", dico.OnlyModified())
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id": 8}`, string(data))
}

func TestJSON_DecodeErrors(t *testing.T) {
	_, err := codec.UnmarshalJSON(userSchema, dico.DefaultName, []byte(`{"id": `))
	assert.Error(t, err)

	_, err = codec.UnmarshalJSON(userSchema, dico.DefaultName, []byte(`[1, 2]`))
	assert.Error(t, err)

	_, err = codec.UnmarshalJSON(userSchema, dico.DefaultName, []byte(`{"id": 1} {"id": 2}`))
	assert.Error(t, err)

	_, err = codec.UnmarshalJSON(userSchema, "nope", []byte(`{}`))
	assert.ErrorIs(t, err, dico.ErrUnknownSource)
}

func TestJSON_EncodeRejectsInvalidDocument(t *testing.T) {
	u := newUser(t)
	require.NoError(t, u.Set("name", 3))

	_, err := codec.MarshalJSON(u, dico.DefaultName)
	require.ErrorIs(t, err, dico.ErrValidation)
	iss, ok := dico.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, "/name", iss[0].Path)
}

func TestYAML_RoundTrip(t *testing.T) {
	u := newUser(t)

	data, err := codec.MarshalYAML(u, dico.DefaultName)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw))
	assert.Equal(t, 7, raw["id"])
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", raw["uid"])

	back, err := codec.UnmarshalYAML(userSchema, dico.DefaultName, data)
	require.NoError(t, err)
	assert.True(t, back.Validate())
	assert.Equal(t, u.Get("uid"), back.Get("uid"))
	assert.True(t, back.Get("created").(time.Time).Equal(u.Get("created").(time.Time)))
}

func TestYAML_NestedMappings(t *testing.T) {
	src := `
_id: 3
name: Paul
tokens:
  - consumer_secret: a
  - consumer_secret: b
`
	d, err := codec.UnmarshalYAML(userSchema, "db", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, 3, d.Get("id"))
	tokens := d.Get("tokens").([]any)
	require.Len(t, tokens, 2)
	assert.Equal(t, "b", tokens[1].(*dico.Document).Get("consumer_secret"))

	require.NoError(t, codec.UpdateYAML(d, dico.DefaultName, []byte("name: Paule\n")))
	assert.Equal(t, "Paule", d.Get("name"))
	assert.True(t, d.IsModified("name"))

	_, err = codec.UnmarshalYAML(userSchema, dico.DefaultName, []byte("- 1\n- 2\n"))
	assert.Error(t, err)

	empty, err := codec.UnmarshalYAML(userSchema, dico.DefaultName, nil)
	require.NoError(t, err)
	assert.False(t, empty.Has("id"))
}

func TestCodec_BindsViewAndSource(t *testing.T) {
	c, err := codec.New(userSchema, codec.JSON, codec.WithView("save"), codec.WithSource("db"))
	require.NoError(t, err)
	assert.Equal(t, "json", c.Format().Name())

	data, err := c.Encode(newUser(t))
	require.NoError(t, err)
	d, err := c.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, int64(7), d.Get("id"))

	require.NoError(t, c.Update(d, []byte(`{"name": "Paul"}`)))
	assert.Equal(t, "Paul", d.Get("name"))

	_, err = c.Encode(tokenSchema.New(map[string]any{"consumer_secret": "x"}))
	assert.ErrorIs(t, err, codec.ErrSchemaMismatch)

	_, err = codec.New(userSchema, codec.YAML, codec.WithView("nope"))
	assert.ErrorIs(t, err, dico.ErrUnknownView)
	_, err = codec.New(userSchema, codec.YAML, codec.WithSource("nope"))
	assert.ErrorIs(t, err, dico.ErrUnknownSource)
}
