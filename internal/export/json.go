// Package export renders transform results as a machine-readable run report.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/dusk-indust/reaict/internal/pipeline"
)

// RunReport is the top-level JSON export structure.
type RunReport struct {
	ExportedAt string       `json:"exportedAt"`
	Totals     Totals       `json:"totals"`
	Files      []FileExport `json:"files"`
}

// Totals sums candidate outcomes across every file.
type Totals struct {
	Files      int `json:"files"`
	Changed    int `json:"changed"`
	Applied    int `json:"applied"`
	Skipped    int `json:"skipped"`
	Exhausted  int `json:"exhausted"`
	Failed     int `json:"failed"`
	Superseded int `json:"superseded"`
}

// FileExport describes one transformed file.
type FileExport struct {
	Path       string            `json:"path"`
	Changed    bool              `json:"changed"`
	Binding    string            `json:"binding,omitempty"`
	Error      string            `json:"error,omitempty"`
	Components []ComponentExport `json:"components,omitempty"`
}

// ComponentExport describes the outcome for a single component.
type ComponentExport struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error,omitempty"`
}

// Build assembles a report. errs maps paths whose transform failed as a
// whole to their error; those paths need not appear in results.
func Build(results []*pipeline.Result, errs map[string]error, now time.Time) *RunReport {
	r := &RunReport{ExportedAt: now.UTC().Format(time.RFC3339)}

	for _, res := range results {
		if res == nil {
			continue
		}
		fe := FileExport{Path: res.Filename, Changed: res.Changed, Binding: res.Binding}
		for _, out := range res.Outcomes {
			ce := ComponentExport{Name: out.Name, Status: string(out.Status), Attempts: out.Attempts}
			if out.Err != nil {
				ce.Error = out.Err.Error()
			}
			fe.Components = append(fe.Components, ce)
		}
		s := res.Summary()
		r.Totals.Applied += s.Applied
		r.Totals.Skipped += s.Skipped
		r.Totals.Exhausted += s.Exhausted
		r.Totals.Failed += s.Failed
		r.Totals.Superseded += s.Superseded
		if res.Changed {
			r.Totals.Changed++
		}
		r.Files = append(r.Files, fe)
	}

	for path, err := range errs {
		r.Files = append(r.Files, FileExport{Path: path, Error: err.Error()})
	}
	sort.Slice(r.Files, func(i, j int) bool { return r.Files[i].Path < r.Files[j].Path })
	r.Totals.Files = len(r.Files)
	return r
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r *RunReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteFile writes the report to path.
func WriteFile(path string, r *RunReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := WriteJSON(f, r); err != nil {
		f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	return f.Close()
}
