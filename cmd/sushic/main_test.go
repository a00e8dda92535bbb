package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

// execRoot runs the CLI in-process and returns its captured stdout,
// stderr, and the exit code the command computed, without ever calling
// os.Exit (that call is confined to main itself).
func execRoot(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	exitCode = 0
	root := newRootCmd()
	var outBuf, errBuf bytes.Buffer
	root.SetOut(&outBuf)
	root.SetErr(&errBuf)
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return outBuf.String(), errBuf.String(), exitCode
}

const cleanFixture = `{
	"Path": "a.sushi",
	"Functions": [{
		"Name": "answer",
		"Visibility": "public",
		"ReturnType": {"Kind": "result_shorthand", "Ok": {"Kind": "primitive", "Primitive": "i64"}, "Err": {"Kind": "nominal", "Name": "StdError.Error"}},
		"Body": [{"Kind": "return", "ReturnValue": {"Kind": "enum_literal", "TypeName": "Result", "Variant": "Ok", "Tuple": [{"Kind": "literal", "LitKind": "int", "IntVal": 42}]}}]
	}]
}`

func TestCheckCommandReportsCleanRun(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a.sushi.json", cleanFixture)

	stdout, stderr, code := execRoot(t, "check", dir, "--cache-dsn", ":memory:")
	assert.Equal(t, 0, code)
	assert.Empty(t, stderr)
	assert.Contains(t, stdout, "a.sushi: changed")
}

func TestFingerprintCommandPrintsHashAndLinkage(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a.sushi.json", cleanFixture)

	stdout, _, code := execRoot(t, "fingerprint", dir)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "a.sushi")
	assert.Contains(t, stdout, "answer")
}

func TestDemangleCommandPrintsTemplateAndArgs(t *testing.T) {
	stdout, _, _ := execRoot(t, "demangle", "Maybe__i32")
	assert.Equal(t, "Maybe<i32>\n", stdout)
}

func TestDemangleCommandPrintsBareTemplateForNoArgs(t *testing.T) {
	stdout, _, _ := execRoot(t, "demangle", "i32")
	assert.Equal(t, "i32\n", stdout)
}

func TestDiffCommandReportsNoDifferencesForIdenticalFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("same\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("same\n"), 0o644))

	stdout, _, code := execRoot(t, "diff", a, b)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "no differences")
}

func TestDiffCommandRendersUnifiedDiffForDifferingFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("one\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("two\n"), 0o644))

	stdout, _, code := execRoot(t, "diff", a, b)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "-one")
	assert.Contains(t, stdout, "+two")
}

func TestCheckCommandHaltsAtCollectOnDuplicateSymbol(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a.sushi.json", `{"Path":"a.sushi","Functions":[{"Name":"main"}]}`)
	writeFixture(t, dir, "b.sushi.json", `{"Path":"b.sushi","Functions":[{"Name":"main"}]}`)

	stdout, _, code := execRoot(t, "check", dir, "--cache-dsn", ":memory:")
	assert.Equal(t, 2, code)
	assert.Contains(t, stdout, "halted at C1-collect")
}
