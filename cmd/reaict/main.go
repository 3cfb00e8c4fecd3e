package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dusk-indust/reaict/internal/config"
	"github.com/dusk-indust/reaict/internal/observability"
)

// version is set by goreleaser at build time.
var version = "dev"

// CLI flags shared by subcommands.
type cliFlags struct {
	ProjectRoot string
	Provider    string
	Model       string
	BaseURL     string
	Template    string
	MaxAttempts int
	Concurrency int
	Strict      bool
	Verbose     bool

	TraceEndpoint string
}

var (
	flags   cliFlags
	logger  = zap.NewNop()
	tracing *observability.TracerProvider
)

var rootCmd = &cobra.Command{
	Use:   "reaict",
	Short: "Rewrite React function components with memoized hooks",
	Long: `reaict finds capitalized function declarations that return JSX in .jsx
and .tsx files, asks a text-generation model to rewrite them with
React.useMemo and React.useCallback, and splices every answer that parses
as a function declaration back into the file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if flags.Verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l

		tp, err := observability.InitTracing(cmd.Context(), &observability.TracingConfig{
			ServiceName:    "reaict",
			ServiceVersion: version,
			OTLPEndpoint:   flags.TraceEndpoint,
			SampleRate:     1.0,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		tracing = tp
		if tp.Enabled() {
			logger.Debug("exporting spans", zap.String("endpoint", flags.TraceEndpoint))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(ctx); err != nil {
			logger.Warn("flushing spans failed", zap.Error(err))
		}
		_ = logger.Sync()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.ProjectRoot, "project-root", ".", "directory holding reaict.yml")
	pf.StringVar(&flags.Provider, "provider", "", "completion provider: openai or gemini")
	pf.StringVar(&flags.Model, "model", "", "model identifier")
	pf.StringVar(&flags.BaseURL, "base-url", "", "OpenAI-compatible API base URL")
	pf.StringVar(&flags.Template, "template", "", "file holding a prompt template with a {SOURCE} placeholder")
	pf.IntVar(&flags.MaxAttempts, "max-attempts", 0, "requests per component before giving up")
	pf.IntVar(&flags.Concurrency, "concurrency", 0, "concurrent requests per file (0 = unlimited)")
	pf.BoolVar(&flags.Strict, "strict", false, "fail a whole file on the first remote error")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&flags.TraceEndpoint, "trace-endpoint", os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"), "OTLP gRPC collector address for spans (disabled when empty)")

	rootCmd.AddCommand(transformCmd, detectCmd, serveMCPCmd, versionCmd)
}

// loadOptions reads the project config and applies flag overrides.
func loadOptions() (*config.Options, error) {
	opts, err := config.Load(flags.ProjectRoot)
	if err != nil {
		return nil, err
	}
	if flags.Provider != "" {
		opts.Provider = flags.Provider
	}
	if flags.Model != "" {
		opts.Model = flags.Model
	}
	if flags.BaseURL != "" {
		opts.BaseURL = flags.BaseURL
	}
	if flags.Template != "" {
		opts.TemplateFile = flags.Template
	}
	if flags.MaxAttempts != 0 {
		opts.MaxAttempts = flags.MaxAttempts
	}
	if flags.Concurrency != 0 {
		opts.Concurrency = flags.Concurrency
	}
	if flags.Strict {
		opts.Strict = true
	}
	return opts, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
