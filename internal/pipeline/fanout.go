package pipeline

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/reaict/internal/rewrite"
	"github.com/dusk-indust/reaict/internal/syntax"
)

// Task is a deferred rewrite of one candidate. Building a Task has no side
// effects; calling it performs the remote protocol.
type Task struct {
	Candidate syntax.Candidate
	Run       func(ctx context.Context) rewrite.Outcome
}

// BuildTasks creates one Task per candidate. Each task prompts with the
// candidate text captured at detection time.
func BuildTasks(doc *syntax.Document, cands []syntax.Candidate, rw *rewrite.Rewriter) []Task {
	tasks := make([]Task, 0, len(cands))
	for _, c := range cands {
		tasks = append(tasks, Task{
			Candidate: c,
			Run: func(ctx context.Context) rewrite.Outcome {
				return rw.Rewrite(ctx, doc, c)
			},
		})
	}
	return tasks
}

// FanOut runs the tasks of one file concurrently and collects their outcomes.
type FanOut struct {
	limit      int
	strict     bool
	onProgress func(ProgressEvent)
	tracer     trace.Tracer
}

// NewFanOut creates a FanOut. limit caps concurrent tasks (0 means no cap).
// In strict mode the first remote failure cancels the remaining tasks and
// fails the whole file. onProgress may be nil.
func NewFanOut(limit int, strict bool, onProgress func(ProgressEvent)) *FanOut {
	return &FanOut{
		limit:      limit,
		strict:     strict,
		onProgress: onProgress,
		tracer:     otel.Tracer(tracerName),
	}
}

// Run executes every task and waits for all of them. Outcomes are indexed
// like tasks.
//
// Without strict mode failures are isolated: the returned error is non-nil
// only when every task failed remotely, and it joins all their errors.
func (f *FanOut) Run(ctx context.Context, file string, tasks []Task) ([]rewrite.Outcome, error) {
	outcomes := make([]rewrite.Outcome, len(tasks))

	var (
		g    *errgroup.Group
		gctx = ctx
	)
	if f.strict {
		g, gctx = errgroup.WithContext(ctx)
	} else {
		g = &errgroup.Group{}
	}
	if f.limit > 0 {
		g.SetLimit(f.limit)
	}

	for i, task := range tasks {
		name := task.Candidate.Name
		f.emit(ProgressEvent{File: file, Component: name, Status: ProgressPending})

		g.Go(func() error {
			sctx, span := f.tracer.Start(gctx, "rewrite.candidate")
			defer span.End()
			span.SetAttributes(
				attribute.String("component", name),
				attribute.Int("line", task.Candidate.StartLine),
			)

			f.emit(ProgressEvent{File: file, Component: name, Status: ProgressWorking})
			out := task.Run(sctx)
			outcomes[i] = out

			span.SetAttributes(
				attribute.String("status", string(out.Status)),
				attribute.Int("attempts", out.Attempts),
			)

			switch out.Status {
			case rewrite.StatusApplied:
				f.emit(ProgressEvent{File: file, Component: name, Status: ProgressComplete})
			case rewrite.StatusSkippedEmpty:
				f.emit(ProgressEvent{File: file, Component: name, Status: ProgressSkipped, Message: "empty response"})
			case rewrite.StatusExhausted:
				span.SetStatus(codes.Error, out.Err.Error())
				f.emit(ProgressEvent{File: file, Component: name, Status: ProgressSkipped, Message: out.Err.Error()})
			case rewrite.StatusFailed:
				span.RecordError(out.Err)
				span.SetStatus(codes.Error, out.Err.Error())
				f.emit(ProgressEvent{File: file, Component: name, Status: ProgressFailed, Message: out.Err.Error()})
				if f.strict {
					return out.Err // cancels the siblings
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	if f.strict || len(outcomes) == 0 {
		return outcomes, nil
	}

	var errs []error
	for _, out := range outcomes {
		if out.Status != rewrite.StatusFailed {
			return outcomes, nil
		}
		errs = append(errs, out.Err)
	}
	return outcomes, errors.Join(errs...)
}

// emit sends a progress event if a callback is registered.
func (f *FanOut) emit(ev ProgressEvent) {
	if f.onProgress != nil {
		f.onProgress(ev)
	}
}
