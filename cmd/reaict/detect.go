package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/reaict/internal/config"
	"github.com/dusk-indust/reaict/internal/llm"
	"github.com/dusk-indust/reaict/internal/pipeline"
)

var detectCmd = &cobra.Command{
	Use:   "detect [file...]",
	Short: "List the components that would be rewritten",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions()
		if err != nil {
			return err
		}
		// Detection never calls the model, so no key is needed.
		if opts.APIKey == "" {
			opts.Client = offlineClient{}
		}
		tr, err := pipeline.New(cmd.Context(), opts, pipeline.WithLogger(logger))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, path := range args {
			src, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			cands, err := tr.Detect(cmd.Context(), path, src)
			if err != nil {
				fmt.Fprintf(out, "%s: %v\n", path, err)
				continue
			}
			for _, c := range cands {
				fmt.Fprintf(out, "%s:%d: %s\n", path, c.StartLine, c.Name)
			}
		}
		return nil
	},
}

// offlineClient refuses every request.
type offlineClient struct{}

func (offlineClient) Complete(context.Context, *llm.Request) (string, error) {
	return "", config.ErrMissingAPIKey
}
