package rewrite

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/reaict/internal/llm"
	"github.com/dusk-indust/reaict/internal/syntax"
)

// scriptedClient returns responses in order and repeats the last one.
type scriptedClient struct {
	mu        sync.Mutex
	responses []string
	err       error
	requests  []*llm.Request
}

func (s *scriptedClient) Complete(_ context.Context, req *llm.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return "", s.err
	}
	i := len(s.requests) - 1
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	return s.responses[i], nil
}

func (s *scriptedClient) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func setup(t *testing.T, src string) (*syntax.Parser, *syntax.Document, syntax.Candidate) {
	t.Helper()
	p := syntax.NewParser()
	doc, err := p.Parse(context.Background(), "w.jsx", []byte(src), syntax.DialectJSX)
	require.NoError(t, err)
	t.Cleanup(doc.Close)
	cands := syntax.FindCandidates(doc)
	require.Len(t, cands, 1)
	return p, doc, cands[0]
}

const widget = "function Widget() { return <span>{1+1}</span>; }\n"

func TestRewriter_PromptIsVerbatim(t *testing.T) {
	r := NewRewriter(&scriptedClient{}, syntax.NewParser())
	req := r.Request("function A() { return <a/>; }")

	assert.Equal(t, DefaultModel, req.Model)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, llm.RoleUser, req.Messages[0].Role)
	assert.Equal(t,
		"This is a React component, optimize it with React.useMemo, React.useCallback. you must prepend hooks with \"React.\". Do not optimize identifiers. Try to pre-evaluate expressions. Only return the new component function declaration in plaintext. Do not include the imports or exports:\n\nfunction A() { return <a/>; }",
		req.Messages[0].Content)
}

func TestRewriter_RetriesUntilDeclaration(t *testing.T) {
	p, doc, c := setup(t, widget)
	client := &scriptedClient{responses: []string{
		"Sure! The component is already optimal.",
		"function Widget() { return <span>2</span>; }",
	}}

	out := NewRewriter(client, p).Rewrite(context.Background(), doc, c)
	require.NoError(t, out.Err)
	assert.Equal(t, StatusApplied, out.Status)
	assert.Equal(t, 2, out.Attempts)
	assert.Equal(t, "React", out.Binding)
	assert.Equal(t, 2, client.calls())

	// Both prompts embed the original text, not the rejected answer.
	assert.Equal(t, client.requests[0].Messages[0].Content, client.requests[1].Messages[0].Content)

	assert.Equal(t, "import React from \"react\";\nfunction Widget() { return <span>2</span>; }\n", doc.Serialize())
}

func TestRewriter_EmptyResponseIsSkipped(t *testing.T) {
	p, doc, c := setup(t, widget)
	client := &scriptedClient{responses: []string{""}}

	out := NewRewriter(client, p).Rewrite(context.Background(), doc, c)
	assert.Equal(t, StatusSkippedEmpty, out.Status)
	assert.NoError(t, out.Err)
	assert.Equal(t, 1, client.calls())
	assert.Equal(t, widget, doc.Serialize())
}

func TestRewriter_BlankResponseIsRetried(t *testing.T) {
	p, doc, c := setup(t, widget)
	client := &scriptedClient{responses: []string{"  \n", "function Widget() { return <span>2</span>; }"}}

	out := NewRewriter(client, p).Rewrite(context.Background(), doc, c)
	assert.Equal(t, StatusApplied, out.Status)
	assert.Equal(t, 2, out.Attempts)
	assert.Equal(t, 2, client.calls())
}

func TestRewriter_AttemptsAreBounded(t *testing.T) {
	p, doc, c := setup(t, widget)
	client := &scriptedClient{responses: []string{"export function Widget() { return null; }"}}

	out := NewRewriter(client, p, WithMaxAttempts(3)).Rewrite(context.Background(), doc, c)
	assert.Equal(t, StatusExhausted, out.Status)
	assert.ErrorIs(t, out.Err, ErrAttemptsExhausted)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, 3, client.calls())
	assert.False(t, doc.Replaced())
}

func TestRewriter_RemoteFailure(t *testing.T) {
	p, doc, c := setup(t, widget)
	client := &scriptedClient{err: errors.New("429 quota")}

	out := NewRewriter(client, p).Rewrite(context.Background(), doc, c)
	assert.Equal(t, StatusFailed, out.Status)
	require.Error(t, out.Err)
	assert.Contains(t, out.Err.Error(), "429 quota")
	assert.Equal(t, 1, client.calls())
}

func TestRewriter_CanceledContext(t *testing.T) {
	p, doc, c := setup(t, widget)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := NewRewriter(&scriptedClient{responses: []string{"x"}}, p).Rewrite(ctx, doc, c)
	assert.Equal(t, StatusFailed, out.Status)
	assert.ErrorIs(t, out.Err, context.Canceled)
	assert.Zero(t, out.Attempts)
}

func TestRewriter_StripsFences(t *testing.T) {
	fenced := "```jsx\nfunction Widget() { return <span>2</span>; }\n```"

	p, doc, c := setup(t, widget)
	out := NewRewriter(&scriptedClient{responses: []string{fenced}}, p).Rewrite(context.Background(), doc, c)
	assert.Equal(t, StatusApplied, out.Status)
	assert.Equal(t, 1, out.Attempts)

	p, doc, c = setup(t, widget)
	out = NewRewriter(&scriptedClient{responses: []string{fenced}}, p, WithSanitize(false), WithMaxAttempts(2)).
		Rewrite(context.Background(), doc, c)
	assert.Equal(t, StatusExhausted, out.Status)
}

func TestRewriter_CustomModelAndTemplate(t *testing.T) {
	tmpl := Template{Name: "terse/v1", Body: "Optimize:\n" + SourcePlaceholder}
	r := NewRewriter(&scriptedClient{}, syntax.NewParser(), WithModel("gpt-4o-mini"), WithTemplate(tmpl))

	req := r.Request("function A() {}")
	assert.Equal(t, "gpt-4o-mini", req.Model)
	assert.Equal(t, "Optimize:\nfunction A() {}", req.Messages[0].Content)
}
