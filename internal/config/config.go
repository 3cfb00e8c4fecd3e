package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/reaict/internal/llm"
	"github.com/dusk-indust/reaict/internal/syntax"
)

// ErrMissingAPIKey is returned when neither an API key nor a client is set.
var ErrMissingAPIKey = errors.New("config: missing API key")

// Environment variables consulted for the API key, in order.
var apiKeyEnv = []string{"REAICT_API_KEY", "OPENAI_API_KEY"}

// Options configures a transformer. It is built once and read-only after.
type Options struct {
	APIKey   string `yaml:"apiKey,omitempty"`
	Provider string `yaml:"provider,omitempty"`
	Model    string `yaml:"model,omitempty"`
	BaseURL  string `yaml:"baseURL,omitempty"`

	// Client, when set, is used instead of building one from APIKey.
	Client llm.Completer `yaml:"-"`

	// Plugins lists extra syntax extensions. Falsy entries (false, null, "")
	// disable an entry without removing it from the list.
	Plugins []any `yaml:"plugins,omitempty"`

	TemplateFile string        `yaml:"templateFile,omitempty"`
	MaxAttempts  int           `yaml:"maxAttempts,omitempty"`
	Concurrency  int           `yaml:"concurrency,omitempty"`
	Strict       bool          `yaml:"strict,omitempty"`
	Sanitize     *bool         `yaml:"sanitize,omitempty"`
	Extensions   []string      `yaml:"extensions,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
}

// Validate reports configuration errors that must stop construction.
func (o *Options) Validate() error {
	if o.APIKey == "" && o.Client == nil {
		return ErrMissingAPIKey
	}
	if o.MaxAttempts < 0 {
		return fmt.Errorf("config: maxAttempts must not be negative, got %d", o.MaxAttempts)
	}
	if o.Concurrency < 0 {
		return fmt.Errorf("config: concurrency must not be negative, got %d", o.Concurrency)
	}
	if _, err := o.SyntaxExtensions(); err != nil {
		return err
	}
	return nil
}

// SanitizeResponses reports whether model responses are fence-stripped.
func (o *Options) SanitizeResponses() bool {
	return o.Sanitize == nil || *o.Sanitize
}

// SyntaxExtensions resolves the enabled plugin entries to extension names.
func (o *Options) SyntaxExtensions() ([]string, error) {
	var exts []string
	for _, p := range NormalizePlugins(o.Plugins) {
		name, ok := p.(string)
		if !ok {
			return nil, fmt.Errorf("config: plugin entry %v is not a name", p)
		}
		switch name {
		case syntax.ExtensionJSX, syntax.ExtensionTypeScript:
			exts = append(exts, name)
		default:
			return nil, fmt.Errorf("config: unknown syntax plugin %q", name)
		}
	}
	return exts, nil
}

// NormalizePlugins drops falsy entries (nil, false, "", numeric zero) and
// keeps the rest in order.
func NormalizePlugins(entries []any) []any {
	out := make([]any, 0, len(entries))
	for _, e := range entries {
		if !falsy(e) {
			out = append(out, e)
		}
	}
	return out
}

func falsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case string:
		return x == ""
	case int:
		return x == 0
	case int64:
		return x == 0
	case float64:
		return x == 0 || math.IsNaN(x)
	}
	return false
}

// Load reads reaict.yml or reaict.yaml from dir and fills the API key from
// the environment when the file has none. A missing file yields zero-value
// options, not an error.
func Load(dir string) (*Options, error) {
	opts := &Options{}
	for _, name := range []string{"reaict.yml", "reaict.yaml"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, opts); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", name, err)
		}
		break
	}
	if opts.APIKey == "" {
		for _, env := range apiKeyEnv {
			if v := os.Getenv(env); v != "" {
				opts.APIKey = v
				break
			}
		}
	}
	return opts, nil
}
