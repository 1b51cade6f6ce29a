package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const declYAML = `
name: User
fields:
  - {name: id, type: integer, required: true}
  - {name: name, type: string, max_length: 8}
  - {name: where, type: geopoint}
views:
  - {name: public, keep: [name]}
sources:
  - name: db
    filters:
      - rename: {from: _id, to: id}
`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func TestRun_Validate(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"decl.yaml": declYAML,
		"ok.json":   `{"_id": 1, "name": "bob"}`,
		"bad.yaml":  "name: a-very-long-name\n",
		"dup.json":  `{"_id": 1, "_id": 2}`,
	})
	decl := filepath.Join(dir, "decl.yaml")

	var stdout, stderr bytes.Buffer
	code := run([]string{"validate", "-decl", decl, "-schema", "User", "-source", "db", filepath.Join(dir, "ok.json")}, &stdout, &stderr)
	assert.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "ok.json: ok")

	stdout.Reset()
	code = run([]string{"validate", "-decl", decl, "-schema", "User", filepath.Join(dir, "bad.yaml")}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "/id")
	assert.Contains(t, stdout.String(), "/name")

	stdout.Reset()
	code = run([]string{"validate", "-decl", decl, "-schema", "User", "-partial", filepath.Join(dir, "bad.yaml")}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.NotContains(t, stdout.String(), "/id:")

	stderr.Reset()
	code = run([]string{"validate", "-decl", decl, "-schema", "User", "-source", "db", "-strict", filepath.Join(dir, "dup.json")}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "duplicate key")
}

func TestRun_JSONSchema(t *testing.T) {
	dir := writeFiles(t, map[string]string{"decl.yaml": declYAML})
	var stdout, stderr bytes.Buffer
	code := run([]string{"jsonschema", "-decl", filepath.Join(dir, "decl.yaml"), "-schema", "User", "-view", "public"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), `"name"`)
	assert.NotContains(t, stdout.String(), `"where"`)
}

func TestRun_Convert(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"decl.yaml": declYAML,
		"in.json":   `{"_id": 4, "name": "bob", "where": [1.5, 2.5]}`,
	})
	var stdout, stderr bytes.Buffer
	code := run([]string{"convert", "-decl", filepath.Join(dir, "decl.yaml"), "-schema", "User", "-source", "db", "-to", "yaml", filepath.Join(dir, "in.json")}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	out := stdout.String()
	assert.Contains(t, out, "id: 4")
	assert.Contains(t, out, "name: bob")
}

func TestRun_UsageErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(nil, &stdout, &stderr))
	assert.Equal(t, 2, run([]string{"frobnicate"}, &stdout, &stderr))
	assert.Equal(t, 2, run([]string{"validate", "x.json"}, &stdout, &stderr))
	assert.Equal(t, 2, run([]string{"convert", "-to", "xml", "-decl", "d", "-schema", "S", "x.json"}, &stdout, &stderr))

	stderr.Reset()
	dir := writeFiles(t, map[string]string{"decl.yaml": declYAML})
	assert.Equal(t, 1, run([]string{"jsonschema", "-decl", filepath.Join(dir, "decl.yaml"), "-schema", "Nope"}, &stdout, &stderr))
	assert.True(t, strings.Contains(stderr.String(), "User"))
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitCSV(" a, ,b,"))
	assert.Empty(t, splitCSV(""))
}
