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

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCollectFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "App.jsx"), "")
	writeFile(t, filepath.Join(root, "src", "Card.tsx"), "")
	writeFile(t, filepath.Join(root, "src", "util.js"), "")
	writeFile(t, filepath.Join(root, "node_modules", "lib", "Dep.jsx"), "")
	writeFile(t, filepath.Join(root, ".cache", "Old.jsx"), "")
	explicit := filepath.Join(root, "notes.txt")
	writeFile(t, explicit, "")

	include := func(p string) bool {
		return strings.HasSuffix(p, ".jsx") || strings.HasSuffix(p, ".tsx")
	}
	files, err := collectFiles([]string{root, explicit}, include)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "src", "App.jsx"),
		filepath.Join(root, "src", "Card.tsx"),
		explicit,
	}, files)
}

func TestCollectFiles_Missing(t *testing.T) {
	_, err := collectFiles([]string{filepath.Join(t.TempDir(), "nope")}, func(string) bool { return true })
	assert.Error(t, err)
}

func TestLoadOptions_FlagOverrides(t *testing.T) {
	t.Setenv("REAICT_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "reaict.yml"), "apiKey: sk-file\nmodel: from-file\nmaxAttempts: 2\n")

	saved := flags
	t.Cleanup(func() { flags = saved })
	flags = cliFlags{ProjectRoot: dir, Model: "from-flag", Concurrency: 3, Strict: true}

	opts, err := loadOptions()
	require.NoError(t, err)
	assert.Equal(t, "sk-file", opts.APIKey)
	assert.Equal(t, "from-flag", opts.Model)
	assert.Equal(t, 2, opts.MaxAttempts)
	assert.Equal(t, 3, opts.Concurrency)
	assert.True(t, opts.Strict)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, version+"\n", out.String())
}
