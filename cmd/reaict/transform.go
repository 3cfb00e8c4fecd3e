package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/reaict/internal/export"
	"github.com/dusk-indust/reaict/internal/pipeline"
)

var (
	writeInPlace bool
	showProgress bool
	fileJobs     int
	reportPath   string
)

var transformCmd = &cobra.Command{
	Use:   "transform [path...]",
	Short: "Rewrite the components of .jsx and .tsx files",
	Long: `Transforms each file (directories are walked, node_modules skipped).
Without --write the resulting text is printed to stdout.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransform(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args)
	},
}

func init() {
	transformCmd.Flags().BoolVarP(&writeInPlace, "write", "w", false, "write results back to the files")
	transformCmd.Flags().BoolVar(&showProgress, "progress", false, "print per-component progress to stderr")
	transformCmd.Flags().IntVarP(&fileJobs, "jobs", "j", 4, "files transformed at once")
	transformCmd.Flags().StringVar(&reportPath, "report", "", "write a JSON run report to this path")
}

func runTransform(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	opts, err := loadOptions()
	if err != nil {
		return err
	}

	reporter := pipeline.NewProgressReporter()
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for ev := range reporter.Subscribe() {
			if showProgress {
				fmt.Fprintln(stderr, pipeline.FormatProgress(ev))
			}
		}
	}()
	defer func() {
		reporter.Close()
		<-drained
	}()

	tr, err := pipeline.New(ctx, opts,
		pipeline.WithLogger(logger),
		pipeline.WithProgress(reporter.Emit),
		pipeline.WithTracerProvider(tracing.Provider()),
	)
	if err != nil {
		return err
	}

	files, err := collectFiles(args, tr.Include)
	if err != nil {
		return err
	}

	results := make([]*pipeline.Result, len(files))
	var (
		mu     sync.Mutex
		failed = map[string]error{}
	)
	g := &errgroup.Group{}
	if fileJobs > 0 {
		g.SetLimit(fileJobs)
	}
	for i, path := range files {
		g.Go(func() error {
			res, err := tr.TransformFile(ctx, path, writeInPlace)
			if err != nil {
				logger.Error("transform failed", zap.String("file", path), zap.Error(err))
				mu.Lock()
				failed[path] = err
				mu.Unlock()
				return nil
			}
			results[i] = res
			s := res.Summary()
			logger.Info("transformed",
				zap.String("file", path),
				zap.Bool("changed", res.Changed),
				zap.Int("applied", s.Applied),
				zap.Int("skipped", s.Skipped+s.Exhausted),
				zap.Int("failed", s.Failed))
			return nil
		})
	}
	_ = g.Wait()

	if !writeInPlace {
		for i, res := range results {
			// Filtered and unparsable files have no output text.
			if res == nil || res.Code == "" {
				continue
			}
			if len(files) > 1 {
				fmt.Fprintf(stdout, "==> %s <==\n", files[i])
			}
			fmt.Fprint(stdout, res.Code)
		}
	}

	if reportPath != "" {
		if err := export.WriteFile(reportPath, export.Build(results, failed, time.Now())); err != nil {
			return err
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d files failed", len(failed), len(files))
	}
	return nil
}

// collectFiles expands directories into the files include accepts. Explicit
// file arguments are kept even when include rejects them; the transformer
// then passes them through unchanged.
func collectFiles(args []string, include func(string) bool) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && (d.Name() == "node_modules" || strings.HasPrefix(d.Name(), ".")) {
					return filepath.SkipDir
				}
				return nil
			}
			if include(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", arg, err)
		}
	}
	return files, nil
}
