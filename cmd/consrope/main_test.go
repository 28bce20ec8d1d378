package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func sqliteConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return writeFile(t, dir, "consrope.toml", `
[logging]
level = "error"

[store]
backend = "sqlite"
path = "`+filepath.ToSlash(filepath.Join(dir, "ropes.db"))+`"
`)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "consrope dev\n"), out)
}

func TestEval_Expr(t *testing.T) {
	out, err := execute(t, "eval", "-e", `return rope.new("ab") .. "cd"`)
	require.NoError(t, err)
	assert.Equal(t, "abcd\n", out)

	out, err = execute(t, "eval", "--lang", "risor", "-e", `materialize(concat("x", "y"))`)
	require.NoError(t, err)
	assert.Equal(t, "xy\n", out)
}

func TestEval_File(t *testing.T) {
	dir := t.TempDir()
	luaPath := writeFile(t, dir, "s.lua", `
local r = ""
for i = 1, 5 do r = rope.concat(r, tostring(i)) end
return r, r:nodes()
`)
	risorPath := writeFile(t, dir, "s.risor", `rope("a", "b", "c")`)

	out, err := execute(t, "eval", luaPath)
	require.NoError(t, err)
	assert.Equal(t, "12345\t5\n", out)

	out, err = execute(t, "eval", risorPath)
	require.NoError(t, err)
	assert.Equal(t, "abc\n", out)
}

func TestEval_Errors(t *testing.T) {
	_, err := execute(t, "eval")
	require.Error(t, err)

	_, err = execute(t, "eval", "--lang", "cobol", "-e", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown script language")

	_, err = execute(t, "eval", "-e", `return rope.new("abc"):byte(10)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestStress(t *testing.T) {
	out, err := execute(t, "stress", "--n", "300", "--readers", "8", "--skew", "right")
	require.NoError(t, err)
	assert.Contains(t, out, "len=300")
	assert.Contains(t, out, "distinct=1")
	assert.Contains(t, out, "materialized=true")

	_, err = execute(t, "stress", "--skew", "diagonal")
	require.Error(t, err)
}

func TestStore_PutGet(t *testing.T) {
	cfg := sqliteConfig(t)

	out, err := execute(t, "--config", cfg, "store", "put", "--key", "greeting", "Hello", ", ", "World")
	require.NoError(t, err)
	assert.Equal(t, "greeting\t12\n", out)

	out, err = execute(t, "--config", cfg, "store", "get", "greeting")
	require.NoError(t, err)
	assert.Equal(t, "Hello, World\n", out)

	out, err = execute(t, "--config", cfg, "store", "keys")
	require.NoError(t, err)
	assert.Equal(t, "greeting\n", out)

	_, err = execute(t, "--config", cfg, "store", "get", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestStore_PutGeneratedKey(t *testing.T) {
	cfg := sqliteConfig(t)

	out, err := execute(t, "--config", cfg, "store", "put", "a", "b")
	require.NoError(t, err)

	key, n, ok := strings.Cut(strings.TrimSpace(out), "\t")
	require.True(t, ok, out)
	assert.Len(t, key, 36)
	assert.Equal(t, "2", n)

	out, err = execute(t, "--config", cfg, "store", "get", key)
	require.NoError(t, err)
	assert.Equal(t, "ab\n", out)
}

func TestExport(t *testing.T) {
	out, err := execute(t, "export", "--stats", "greeting=Hello,World", "empty=")
	require.NoError(t, err)

	assert.Equal(t, "HelloWorld", gjson.Get(out, "greeting").String())
	assert.Equal(t, "", gjson.Get(out, "empty").String())
	assert.Equal(t, int64(1), gjson.Get(out, "_stats.greeting.nodes").Int())
}

func TestExport_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	_, err := execute(t, "export", "-o", path, "a=x,y")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "xy", gjson.GetBytes(data, "a").String())

	_, err = execute(t, "export", "bad")
	require.Error(t, err)
}

func TestConfig_Invalid(t *testing.T) {
	cfg := writeFile(t, t.TempDir(), "bad.yaml", "rope:\n  nodeCeiling: 0\n")
	_, err := execute(t, "--config", cfg, "version")
	require.NoError(t, err, "version does not load config")

	_, err = execute(t, "--config", cfg, "stress", "--n", "10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nodeCeiling")
}
