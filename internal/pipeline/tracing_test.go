package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func spansNamed(spans []sdktrace.ReadOnlySpan, name string) []sdktrace.ReadOnlySpan {
	var out []sdktrace.ReadOnlySpan
	for _, s := range spans {
		if s.Name() == name {
			out = append(out, s)
		}
	}
	return out
}

func TestTransform_RecordsSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	client := &fakeClient{answer: func(_ context.Context, prompt string) (string, error) {
		if componentIn(prompt) == "Broken" {
			return "", errors.New("503 unavailable")
		}
		return stubComponent(componentIn(prompt)), nil
	}}
	tr := newTransformer(t, client, nil, WithTracerProvider(tp))

	src := "function Card() { return <div/>; }\nfunction Broken() { return <p/>; }\n"
	_, err := tr.Transform(context.Background(), "a.jsx", []byte(src))
	require.NoError(t, err)

	ended := rec.Ended()
	files := spansNamed(ended, "transform.file")
	require.Len(t, files, 1)
	file := files[0]
	assert.Contains(t, file.Attributes(), attribute.String("file", "a.jsx"))
	assert.Contains(t, file.Attributes(), attribute.Int("candidates", 2))
	assert.Contains(t, file.Attributes(), attribute.Bool("changed", true))

	cands := spansNamed(ended, "rewrite.candidate")
	require.Len(t, cands, 2)
	byName := map[string]sdktrace.ReadOnlySpan{}
	for _, s := range cands {
		assert.Equal(t, file.SpanContext().SpanID(), s.Parent().SpanID())
		for _, kv := range s.Attributes() {
			if kv.Key == "component" {
				byName[kv.Value.AsString()] = s
			}
		}
	}

	require.Contains(t, byName, "Card")
	assert.Contains(t, byName["Card"].Attributes(), attribute.String("status", "applied"))
	assert.Equal(t, codes.Unset, byName["Card"].Status().Code)

	require.Contains(t, byName, "Broken")
	assert.Contains(t, byName["Broken"].Attributes(), attribute.String("status", "failed"))
	assert.Equal(t, codes.Error, byName["Broken"].Status().Code)
}

func TestTransform_FailedFileSpanIsError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	client := &fakeClient{answer: func(context.Context, string) (string, error) {
		return "", errors.New("401 unauthorized")
	}}
	tr := newTransformer(t, client, nil, WithTracerProvider(tp))

	_, err := tr.Transform(context.Background(), "a.jsx", []byte("function App() { return <a/>; }\n"))
	require.Error(t, err)

	files := spansNamed(rec.Ended(), "transform.file")
	require.Len(t, files, 1)
	assert.Equal(t, codes.Error, files[0].Status().Code)
}
