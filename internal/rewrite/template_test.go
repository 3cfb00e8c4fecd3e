package rewrite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplate_RenderTrims(t *testing.T) {
	tmpl := Template{Name: "t", Body: "  Rewrite this:\n" + SourcePlaceholder + "\n\n"}
	assert.Equal(t, "Rewrite this:\nfunction A() {}", tmpl.Render("function A() {}"))
}

func TestLoadTemplate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(good, []byte("Make it fast:\n{SOURCE}"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("no placeholder"), 0o644))

	tmpl, err := LoadTemplate(good)
	require.NoError(t, err)
	assert.Equal(t, good, tmpl.Name)

	_, err = LoadTemplate(bad)
	assert.Error(t, err)

	_, err = LoadTemplate(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestDefaultTemplateIsValid(t *testing.T) {
	require.NoError(t, DefaultTemplate.Validate())
}

func TestStripMarkdownFences(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"no fences", "function A() {}", "function A() {}"},
		{"fenced", "```jsx\nfunction A() {}\n```", "function A() {}"},
		{"prose around", "Here you go:\n```\nfunction A() {}\n```\nEnjoy.", "function A() {}"},
		{"unterminated", "```tsx\nfunction A() {}", "function A() {}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripMarkdownFences(tt.in))
		})
	}
}
