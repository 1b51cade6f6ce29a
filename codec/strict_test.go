package codec_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nizox/dico/codec"
)

func TestStrictJSON_DuplicateKeys(t *testing.T) {
	_, err := codec.StrictJSON.Unmarshal([]byte(`{"id": 1, "tokens": [{"consumer_secret": "a", "consumer_secret": "b"}]}`))
	var dup *codec.DuplicateKeyError
	require.True(t, errors.As(err, &dup), "got %v", err)
	assert.Equal(t, "consumer_secret", dup.Key)
	assert.Equal(t, "/tokens/0", dup.Path)

	_, err = codec.StrictJSON.Unmarshal([]byte(`{"id": 1, "id": 2}`))
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "/", dup.Path)
}

func TestStrictJSON_Decodes(t *testing.T) {
	c, err := codec.New(userSchema, codec.StrictJSON, codec.WithSource("db"))
	require.NoError(t, err)
	d, err := c.Decode([]byte(`{"_id": 7, "score": 2.5, "tokens": [{"consumer_secret": "s"}], "extra": {"a": [1, null, true]}}`))
	require.NoError(t, err)
	assert.Equal(t, int64(7), d.Get("id"))
	assert.Equal(t, 2.5, d.Get("score"))
	assert.Len(t, d.Get("tokens").([]any), 1)
	assert.True(t, d.Validate())

	m, err := codec.StrictJSON.Unmarshal([]byte(`null`))
	require.NoError(t, err)
	assert.Empty(t, m)

	_, err = codec.StrictJSON.Unmarshal([]byte(`[1]`))
	assert.Error(t, err)
	_, err = codec.StrictJSON.Unmarshal([]byte(`{"a": 1} 2`))
	assert.Error(t, err)
	_, err = codec.StrictJSON.Unmarshal([]byte(`{"a": `))
	assert.Error(t, err)
}

func TestStrictYAML_DuplicateKeys(t *testing.T) {
	_, err := codec.StrictYAML.Unmarshal([]byte("id: 1\nname: a\nname: b\n"))
	var dup *codec.DuplicateKeyError
	require.True(t, errors.As(err, &dup), "got %v", err)
	assert.Equal(t, "name", dup.Key)
	assert.Equal(t, 2, dup.FirstLine)
	assert.Equal(t, 3, dup.Line)
}

func TestStrictYAML_Decodes(t *testing.T) {
	d, err := userSchema.From("db", nil)
	require.NoError(t, err)

	m, err := codec.StrictYAML.Unmarshal([]byte("_id: 3\nscore: 1.5\nname: ~\ntokens:\n  - consumer_secret: x\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), m["_id"])
	assert.Nil(t, m["name"])

	require.NoError(t, d.UpdateFrom("db", m))
	assert.Equal(t, int64(3), d.Get("id"))
	assert.Equal(t, 1.5, d.Get("score"))
	assert.True(t, d.Validate())

	_, err = codec.StrictYAML.Unmarshal([]byte("- 1\n"))
	assert.Error(t, err)
}
