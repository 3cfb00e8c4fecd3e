package main

import (
	"github.com/spf13/cobra"

	"github.com/dusk-indust/reaict/internal/mcptools"
	"github.com/dusk-indust/reaict/internal/pipeline"
)

var serveAddr string

var serveMCPCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Expose the rewrite tools as an MCP server",
	Long: `Runs an MCP server with the optimize_component and detect_components
tools. Uses stdio unless --addr is given, in which case streamable HTTP is
served on that address.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions()
		if err != nil {
			return err
		}
		tr, err := pipeline.New(cmd.Context(), opts,
			pipeline.WithLogger(logger),
			pipeline.WithTracerProvider(tracing.Provider()),
		)
		if err != nil {
			return err
		}

		server := mcptools.NewServer(mcptools.NewRewriteService(tr))
		if serveAddr != "" {
			return mcptools.RunHTTP(cmd.Context(), server, serveAddr)
		}
		return mcptools.RunStdio(cmd.Context(), server)
	},
}

func init() {
	serveMCPCmd.Flags().StringVar(&serveAddr, "addr", "", "serve streamable HTTP on this address instead of stdio")
}
