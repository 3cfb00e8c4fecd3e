package pipeline

import "fmt"

// ProgressStatus is the state of one candidate during a transform.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressSkipped  ProgressStatus = "skipped"
	ProgressFailed   ProgressStatus = "failed"
)

// ProgressEvent is emitted for each candidate as its rewrite proceeds.
type ProgressEvent struct {
	File      string
	Component string
	Status    ProgressStatus
	Message   string
}

// ProgressReporter emits progress events through a buffered channel.
type ProgressReporter struct {
	ch chan ProgressEvent
}

// NewProgressReporter creates a ProgressReporter with a buffered channel of size 64.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{
		ch: make(chan ProgressEvent, 64),
	}
}

// Emit sends a progress event in a non-blocking fashion.
// If the channel is full, the event is silently dropped.
func (pr *ProgressReporter) Emit(event ProgressEvent) {
	select {
	case pr.ch <- event:
	default:
	}
}

// Subscribe returns a read-only channel for consuming progress events.
func (pr *ProgressReporter) Subscribe() <-chan ProgressEvent {
	return pr.ch
}

// Close closes the progress event channel.
func (pr *ProgressReporter) Close() {
	close(pr.ch)
}

// FormatProgress formats a ProgressEvent as a human-readable status line.
func FormatProgress(event ProgressEvent) string {
	switch event.Status {
	case ProgressPending:
		return fmt.Sprintf("  ○ %s:%s (pending)", event.File, event.Component)
	case ProgressWorking:
		return fmt.Sprintf("  ● %s:%s...", event.File, event.Component)
	case ProgressComplete:
		return fmt.Sprintf("  ✓ %s:%s optimized", event.File, event.Component)
	case ProgressSkipped:
		return fmt.Sprintf("  - %s:%s unchanged: %s", event.File, event.Component, event.Message)
	case ProgressFailed:
		return fmt.Sprintf("  ✗ %s:%s failed: %s", event.File, event.Component, event.Message)
	default:
		return fmt.Sprintf("  ? %s:%s (unknown status)", event.File, event.Component)
	}
}
