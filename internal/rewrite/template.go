package rewrite

import (
	"fmt"
	"os"
	"strings"
)

// SourcePlaceholder marks where the component source goes in a template body.
const SourcePlaceholder = "{SOURCE}"

// Template is a named, versioned prompt.
type Template struct {
	Name string
	Body string
}

// DefaultTemplate asks for hook memoization and a bare function declaration.
// Its wording is relied on by existing users; change it only under a new name.
var DefaultTemplate = Template{
	Name: "react-memo/v1",
	Body: "This is a React component, optimize it with React.useMemo, React.useCallback. " +
		"you must prepend hooks with \"React.\". Do not optimize identifiers. " +
		"Try to pre-evaluate expressions. Only return the new component function declaration in plaintext. " +
		"Do not include the imports or exports:\n\n" + SourcePlaceholder,
}

// Render substitutes source into the template. Surrounding whitespace of the
// result is trimmed.
func (t Template) Render(source string) string {
	return strings.TrimSpace(strings.ReplaceAll(t.Body, SourcePlaceholder, source))
}

// Validate checks that the body has somewhere to put the source.
func (t Template) Validate() error {
	if !strings.Contains(t.Body, SourcePlaceholder) {
		return fmt.Errorf("rewrite: template %q has no %s placeholder", t.Name, SourcePlaceholder)
	}
	return nil
}

// LoadTemplate reads a template body from path. The file name becomes the
// template name.
func LoadTemplate(path string) (Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, fmt.Errorf("rewrite: read template: %w", err)
	}
	t := Template{Name: path, Body: string(data)}
	if err := t.Validate(); err != nil {
		return Template{}, err
	}
	return t, nil
}
