// Package rewrite asks a text-generation service for an optimized version of
// one component declaration and splices the answer into its document once it
// parses as a function declaration.
package rewrite

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dusk-indust/reaict/internal/llm"
	"github.com/dusk-indust/reaict/internal/syntax"
)

// DefaultModel is the model requested when none is configured.
const DefaultModel = llm.DefaultOpenAIModel

// DefaultMaxAttempts bounds the requests made for one candidate.
const DefaultMaxAttempts = 5

// ImportModule and ImportName describe the binding rewritten code relies on.
const (
	ImportModule = "react"
	ImportName   = "React"
)

// ErrAttemptsExhausted is recorded when no response parsed as a declaration.
var ErrAttemptsExhausted = errors.New("rewrite: no valid declaration within attempt limit")

// Status is the final state of one candidate.
type Status string

const (
	StatusApplied      Status = "applied"
	StatusSkippedEmpty Status = "skipped-empty"
	StatusExhausted    Status = "exhausted"
	StatusFailed       Status = "failed"
	// StatusSuperseded marks an applied rewrite whose declaration sits inside
	// another applied rewrite; the enclosing text is what gets serialized.
	StatusSuperseded   Status = "superseded"
)

// Outcome reports what happened to one candidate.
type Outcome struct {
	Name     string
	Slot     int
	Status   Status
	Attempts int
	Binding  string
	Err      error
}

// Rewriter runs the request/validate/splice protocol for candidates.
type Rewriter struct {
	client      llm.Completer
	parser      *syntax.Parser
	model       string
	template    Template
	maxAttempts int
	sanitize    bool
	logger      *zap.Logger
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithModel sets the model identifier sent with each request.
func WithModel(model string) Option {
	return func(r *Rewriter) {
		if model != "" {
			r.model = model
		}
	}
}

// WithTemplate replaces the default prompt template.
func WithTemplate(t Template) Option {
	return func(r *Rewriter) {
		if t.Body != "" {
			r.template = t
		}
	}
}

// WithMaxAttempts bounds the number of requests per candidate. Values below
// one are ignored.
func WithMaxAttempts(n int) Option {
	return func(r *Rewriter) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithSanitize toggles markdown fence stripping of responses.
func WithSanitize(on bool) Option {
	return func(r *Rewriter) {
		r.sanitize = on
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Rewriter) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRewriter creates a Rewriter that calls client and validates answers
// with parser.
func NewRewriter(client llm.Completer, parser *syntax.Parser, opts ...Option) *Rewriter {
	r := &Rewriter{
		client:      client,
		parser:      parser,
		model:       DefaultModel,
		template:    DefaultTemplate,
		maxAttempts: DefaultMaxAttempts,
		sanitize:    true,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Request builds the single-message request for a candidate's source.
func (r *Rewriter) Request(source string) *llm.Request {
	return &llm.Request{
		Model: r.model,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: r.template.Render(source)},
		},
	}
}

// Rewrite obtains a replacement for c and applies it to doc. Every prompt is
// built from c.Text, never from a rejected response. Only StatusFailed
// outcomes carry an error that callers should treat as a remote failure.
func (r *Rewriter) Rewrite(ctx context.Context, doc *syntax.Document, c syntax.Candidate) Outcome {
	out := Outcome{Name: c.Name, Slot: c.Slot}
	req := r.Request(c.Text)
	log := r.logger.With(zap.String("file", doc.Filename), zap.String("component", c.Name))

	for out.Attempts < r.maxAttempts {
		if err := ctx.Err(); err != nil {
			out.Status, out.Err = StatusFailed, err
			return out
		}
		out.Attempts++

		text, err := r.client.Complete(ctx, req)
		if err != nil {
			out.Status, out.Err = StatusFailed, fmt.Errorf("rewrite %s: %w", c.Name, err)
			return out
		}
		if text == "" {
			log.Debug("empty response, leaving component unchanged")
			out.Status = StatusSkippedEmpty
			return out
		}
		if r.sanitize {
			text = StripMarkdownFences(text)
		}

		decl, err := r.parser.ParseDeclaration(text, doc.Dialect)
		if err != nil {
			log.Debug("response rejected", zap.Int("attempt", out.Attempts), zap.Error(err))
			continue
		}

		if err := doc.Replace(c.Slot, decl); err != nil {
			out.Status, out.Err = StatusFailed, fmt.Errorf("rewrite %s: %w", c.Name, err)
			return out
		}
		out.Binding = doc.EnsureDefaultImport(ImportModule, ImportName)
		out.Status = StatusApplied
		log.Info("optimized", zap.Int("attempts", out.Attempts))
		return out
	}

	log.Warn("giving up", zap.Int("attempts", out.Attempts))
	out.Status, out.Err = StatusExhausted, fmt.Errorf("%w: %s after %d attempts", ErrAttemptsExhausted, c.Name, out.Attempts)
	return out
}
