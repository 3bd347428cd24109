package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/envcheck/envcheck/internal/ignore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
}

func walkAll(t *testing.T, cfg Config) []string {
	t.Helper()
	ign, _ := ignore.Load(filepath.Join(cfg.Root, ignore.FileName))
	var got []string
	require.NoError(t, Walk(context.Background(), cfg, ign, func(rel, _ string) { got = append(got, rel) }))
	return got
}

func TestWalk_WithIncludeExcludeGlobs(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"a.txt":    "hello",
		"b.go":     "package main\n",
		"c.md":     "doc",
		"sub/d.go": "package sub\n",
		"sub/e.md": "doc",
	})

	got := walkAll(t, Config{Root: dir, IncludeGlobs: "**/*.go", MaxBytes: 1 << 20})
	assert.ElementsMatch(t, []string{"b.go", "sub/d.go"}, got)

	got = walkAll(t, Config{Root: dir, ExcludeGlobs: "**/*.md", MaxBytes: 1 << 20})
	assert.ElementsMatch(t, []string{"a.txt", "b.go", "sub/d.go"}, got)
}

func TestWalk_ExcludeDirsAndDefaults(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"app.py":                  "x = 1\n",
		"node_modules/lib/x.js":   "y\n",
		"fixtures/secret.env":     "A=b\n",
		"deep/generated/out.json": "{}\n",
		"package-lock.json":       "{}\n",
	})

	got := walkAll(t, Config{
		Root:            dir,
		DefaultExcludes: true,
		ExcludeDirs:     []string{"fixtures", "deep/generated"},
		MaxBytes:        1 << 20,
	})
	assert.Equal(t, []string{"app.py"}, got)
}

func TestWalk_KnownTypesOnly(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		".env.production": "A=1\n",
		"Dockerfile":      "FROM scratch\n",
		"main.go":         "package main\n",
		"notes.txt":       "hello\n",
		"README.md":       "# hi\n",
	})

	got := walkAll(t, Config{Root: dir, KnownTypesOnly: true, MaxBytes: 1 << 20})
	assert.ElementsMatch(t, []string{".env.production", "Dockerfile", "main.go"}, got)
}

func TestWalk_IgnoreFile(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		ignore.FileName:   "testdata/\n*.pem\n",
		"keep.yaml":       "a: b\n",
		"cert.pem":        "-----BEGIN CERTIFICATE-----\n",
		"testdata/x.json": "{}\n",
	})

	got := walkAll(t, Config{Root: dir, MaxBytes: 1 << 20})
	assert.ElementsMatch(t, []string{ignore.FileName, "keep.yaml"}, got)
}

func TestWalk_ContextCancelled(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"a.go": "package a\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Walk(ctx, Config{Root: dir}, ignore.Matcher{}, func(string, string) {})
	assert.ErrorIs(t, err, context.Canceled)
}
