package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTree creates src/a.txt and src/sub/b.txt under a fresh temp dir and
// isolates the config lookup.
func setupTree(t *testing.T) (src, dir string) {
	t.Helper()
	dir = t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))

	src = filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "b.txt"), []byte("bravo"), 0o644))
	return src, dir
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_CopyTree(t *testing.T) {
	src, dir := setupTree(t)
	dst := filepath.Join(dir, "dst")

	code, _, stderr := runCLI(t, "--interval=0", src, dst)
	require.Equal(t, exitOK, code, stderr)

	data, err := os.ReadFile(filepath.Join(dst, "src", "sub", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "bravo", string(data))
	assert.Contains(t, stderr, "Total: 10.0 bytes")
	assert.Contains(t, stderr, "done ✓")
}

func TestRun_Contents(t *testing.T) {
	src, dir := setupTree(t)
	dst := filepath.Join(dir, "dst")

	code, _, stderr := runCLI(t, "--contents", "-q", src, dst)
	require.Equal(t, exitOK, code, stderr)
	assert.FileExists(t, filepath.Join(dst, "a.txt"))
	assert.Empty(t, stderr)
}

func TestRun_ConfigDefaults(t *testing.T) {
	src, dir := setupTree(t)
	dst := filepath.Join(dir, "dst")

	cfgDir := filepath.Join(dir, "config", "ferry")
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.toml"), []byte(`
[defaults]
contents = true
units = "binary"
`), 0o644))

	code, _, stderr := runCLI(t, "--interval=0", src, dst)
	require.Equal(t, exitOK, code, stderr)
	assert.FileExists(t, filepath.Join(dst, "a.txt"))

	// An explicit flag wins over the config file.
	dst2 := filepath.Join(dir, "dst2")
	code, _, stderr = runCLI(t, "--contents=false", "-q", src, dst2)
	require.Equal(t, exitOK, code, stderr)
	assert.FileExists(t, filepath.Join(dst2, "src", "a.txt"))
}

func TestRun_SingleFile(t *testing.T) {
	src, dir := setupTree(t)
	out := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(out, 0o755))

	code, _, stderr := runCLI(t, "-q", filepath.Join(src, "a.txt"), out)
	require.Equal(t, exitOK, code, stderr)
	assert.FileExists(t, filepath.Join(out, "a.txt"))
}

func TestRun_Move(t *testing.T) {
	src, dir := setupTree(t)
	from := filepath.Join(src, "a.txt")
	to := filepath.Join(dir, "moved.txt")

	code, _, stderr := runCLI(t, "--move", "-q", from, to)
	require.Equal(t, exitOK, code, stderr)
	assert.FileExists(t, to)
	assert.NoFileExists(t, from)
}

func TestRun_MissingSource(t *testing.T) {
	_, dir := setupTree(t)

	code, _, stderr := runCLI(t, filepath.Join(dir, "nope"), filepath.Join(dir, "dst"))
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "invalid argument")
	assert.NoDirExists(t, filepath.Join(dir, "dst"))
}

func TestRun_MoveMissingSource(t *testing.T) {
	_, dir := setupTree(t)

	code, _, _ := runCLI(t, "--move", filepath.Join(dir, "nope"), filepath.Join(dir, "dst"))
	assert.Equal(t, exitUsage, code)
}

func TestRun_InvalidFlags(t *testing.T) {
	src, dir := setupTree(t)
	dst := filepath.Join(dir, "dst")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"units", []string{"--units=furlongs", src, dst}, "invalid --units"},
		{"bwlimit", []string{"--bwlimit=fast", src, dst}, "invalid --bwlimit"},
		{"decimals", []string{"--decimals=-2", src, dst}, "invalid --decimals"},
		{"args", []string{src}, "accepts 2 arg(s)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			assert.Equal(t, exitUsage, code)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestRun_Version(t *testing.T) {
	code, stdout, _ := runCLI(t, "--version")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "ferry dev\n", stdout)
}

func TestRun_LogFile(t *testing.T) {
	src, dir := setupTree(t)
	logPath := filepath.Join(dir, "ferry.log")

	code, _, stderr := runCLI(t, "-q", "--log", logPath, src, filepath.Join(dir, "dst"))
	require.Equal(t, exitOK, code, stderr)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"scan complete"`)
}

func TestGenDocs_Markdown(t *testing.T) {
	dir := t.TempDir()
	root := newRootCmd(&bytes.Buffer{}, &bytes.Buffer{})

	require.NoError(t, genDocs(root, dir, "markdown"))
	assert.FileExists(t, filepath.Join(dir, "ferry.md"))

	assert.Error(t, genDocs(root, dir, "pdf"))
}
