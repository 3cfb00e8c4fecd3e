// Package pipeline transforms one source file at a time: parse, detect
// component declarations, rewrite them concurrently, serialize.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dusk-indust/reaict/internal/config"
	"github.com/dusk-indust/reaict/internal/llm"
	"github.com/dusk-indust/reaict/internal/rewrite"
	"github.com/dusk-indust/reaict/internal/syntax"
)

const tracerName = "github.com/dusk-indust/reaict/internal/pipeline"

// DefaultExtensions are the file suffixes transformed when none are configured.
var DefaultExtensions = []string{".jsx", ".tsx"}

// Result is the outcome of transforming one file. Code is empty and Changed
// false when the file was filtered out or could not be parsed.
type Result struct {
	Filename string
	Code     string
	Changed  bool
	Binding  string
	Outcomes []rewrite.Outcome
}

// Summary counts outcomes by status.
type Summary struct {
	Applied    int
	Skipped    int
	Exhausted  int
	Failed     int
	Superseded int
}

// Summary counts the outcomes of r.
func (r *Result) Summary() Summary {
	var s Summary
	for _, out := range r.Outcomes {
		switch out.Status {
		case rewrite.StatusApplied:
			s.Applied++
		case rewrite.StatusSkippedEmpty:
			s.Skipped++
		case rewrite.StatusExhausted:
			s.Exhausted++
		case rewrite.StatusFailed:
			s.Failed++
		case rewrite.StatusSuperseded:
			s.Superseded++
		}
	}
	return s
}

// TransformError is returned when a file's rewrite failed as a whole.
type TransformError struct {
	Filename string
	Outcomes []rewrite.Outcome
	Err      error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %s: %v", e.Filename, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// Transformer rewrites component declarations in JSX and TSX files.
// It is safe for concurrent use across files.
type Transformer struct {
	parser     *syntax.Parser
	rewriter   *rewrite.Rewriter
	fanout     *FanOut
	extensions []string
	syntaxExts []string
	logger     *zap.Logger
	onProgress func(ProgressEvent)
	tp         trace.TracerProvider
	tracer     trace.Tracer
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Transformer) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithTracerProvider sets where spans are reported. The global provider is
// used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(t *Transformer) {
		if tp != nil {
			t.tp = tp
		}
	}
}

// WithProgress registers a progress callback. It is called from the rewrite
// goroutines and must be safe for concurrent use.
func WithProgress(fn func(ProgressEvent)) Option {
	return func(t *Transformer) {
		t.onProgress = fn
	}
}

// New validates opts and builds a Transformer. A missing API key is fatal
// here, before any file is processed.
func New(ctx context.Context, opts *config.Options, options ...Option) (*Transformer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	t := &Transformer{
		parser:     syntax.NewParser(),
		extensions: DefaultExtensions,
		logger:     zap.NewNop(),
		tp:         otel.GetTracerProvider(),
	}
	for _, o := range options {
		o(t)
	}
	t.tracer = t.tp.Tracer(tracerName)
	if len(opts.Extensions) > 0 {
		t.extensions = opts.Extensions
	}

	exts, err := opts.SyntaxExtensions()
	if err != nil {
		return nil, err
	}
	t.syntaxExts = exts

	client := opts.Client
	if client != nil {
		t.logger.Info("using supplied completion client")
	} else {
		client, err = llm.New(ctx, opts.Provider, opts.APIKey,
			llm.WithBaseURL(opts.BaseURL),
			llm.WithTimeout(opts.Timeout),
		)
		if err != nil {
			return nil, err
		}
	}

	model := opts.Model
	if model == "" {
		model = llm.DefaultModel(opts.Provider)
	}
	rwOpts := []rewrite.Option{
		rewrite.WithModel(model),
		rewrite.WithMaxAttempts(opts.MaxAttempts),
		rewrite.WithSanitize(opts.SanitizeResponses()),
		rewrite.WithLogger(t.logger),
	}
	if opts.TemplateFile != "" {
		tmpl, err := rewrite.LoadTemplate(opts.TemplateFile)
		if err != nil {
			return nil, err
		}
		rwOpts = append(rwOpts, rewrite.WithTemplate(tmpl))
	}

	t.rewriter = rewrite.NewRewriter(client, t.parser, rwOpts...)
	t.fanout = NewFanOut(opts.Concurrency, opts.Strict, t.onProgress)
	t.fanout.tracer = t.tracer
	return t, nil
}

// Include reports whether filename has one of the transformed extensions.
func (t *Transformer) Include(filename string) bool {
	for _, ext := range t.extensions {
		if strings.HasSuffix(filename, ext) {
			return true
		}
	}
	return false
}

// Detect parses src and lists its candidates without contacting the service.
func (t *Transformer) Detect(ctx context.Context, filename string, src []byte) ([]syntax.Candidate, error) {
	doc, err := t.parser.Parse(ctx, filename, src, syntax.DialectFor(filename, t.syntaxExts))
	if err != nil {
		return nil, err
	}
	defer doc.Close()
	return syntax.FindCandidates(doc), nil
}

// Transform rewrites every candidate of one file. Filtered-out and unparsable
// files come back unchanged with a nil error.
func (t *Transformer) Transform(ctx context.Context, filename string, src []byte) (*Result, error) {
	unchanged := &Result{Filename: filename}
	if !t.Include(filename) {
		return unchanged, nil
	}

	ctx, span := t.tracer.Start(ctx, "transform.file")
	defer span.End()
	span.SetAttributes(attribute.String("file", filename))

	log := t.logger.With(zap.String("file", filename))

	doc, err := t.parser.Parse(ctx, filename, src, syntax.DialectFor(filename, t.syntaxExts))
	if err != nil {
		var perr *syntax.ParseError
		if errors.As(err, &perr) {
			log.Debug("not transforming unparsable file", zap.Error(err))
			return unchanged, nil
		}
		return nil, err
	}
	defer doc.Close()

	cands := syntax.FindCandidates(doc)
	span.SetAttributes(attribute.Int("candidates", len(cands)))
	log.Debug("detected components", zap.Int("count", len(cands)))

	outcomes, err := t.fanout.Run(ctx, filename, BuildTasks(doc, cands, t.rewriter))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &TransformError{Filename: filename, Outcomes: outcomes, Err: err}
	}

	for i := range outcomes {
		out := &outcomes[i]
		if out.Status == rewrite.StatusApplied && doc.Superseded(out.Slot) {
			out.Status = rewrite.StatusSuperseded
			if t.onProgress != nil {
				t.onProgress(ProgressEvent{
					File:      filename,
					Component: out.Name,
					Status:    ProgressSkipped,
					Message:   "superseded by enclosing rewrite",
				})
			}
		}
	}

	code := doc.Serialize()
	res := &Result{
		Filename: filename,
		Code:     code,
		Changed:  code != string(src),
		Outcomes: outcomes,
	}
	for _, out := range outcomes {
		if out.Binding != "" {
			res.Binding = out.Binding
			break
		}
	}

	s := res.Summary()
	span.SetAttributes(
		attribute.Bool("changed", res.Changed),
		attribute.Int("applied", s.Applied),
		attribute.Int("failed", s.Failed),
	)
	log.Debug("transformed",
		zap.Int("applied", s.Applied),
		zap.Int("skipped", s.Skipped),
		zap.Int("exhausted", s.Exhausted),
		zap.Int("failed", s.Failed),
		zap.Int("superseded", s.Superseded))
	return res, nil
}

// TransformFile reads path, transforms it and, when write is set and the
// content changed, writes the result back with the original permissions.
func (t *Transformer) TransformFile(ctx context.Context, path string, write bool) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	res, err := t.Transform(ctx, path, src)
	if err != nil {
		return nil, err
	}
	if write && res.Changed {
		if err := os.WriteFile(path, []byte(res.Code), info.Mode().Perm()); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
	}
	return res, nil
}
