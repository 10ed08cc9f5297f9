// Package main provides the clio CLI: ask questions, manage the vector index,
// ingest chunk files and run evaluation cases.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"clio-assistant/internal/app"
	"clio-assistant/internal/config"
	"clio-assistant/internal/contextutil"
)

// Version is set at build time via ldflags
var Version = "dev"

// jsonOutput switches every command to machine-readable output.
var jsonOutput bool

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", failStyle("Error:"), err)
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "clio",
	Short: "Clio Awards assistant CLI",
	Long: `clio answers questions about the Clio Awards from the vector index and
manages that index.

Configuration comes from the environment or a .env file (see LLM_PROVIDER,
GOOGLE_API_KEY, QDRANT_URL, QDRANT_COLLECTION and friends).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of human-readable output")
	rootCmd.Version = Version
}

// setup loads configuration, installs a stderr logger and wires the application.
func setup(cmd *cobra.Command, opts app.Options) (context.Context, *app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, withExit(ExitConfigError, fmt.Errorf("loading config: %w", err))
	}

	handlerOpts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	logger := slog.New(handler).With("command", cmd.CommandPath())
	slog.SetDefault(logger)

	ctx := contextutil.WithLogger(cmd.Context(), logger)
	application, err := app.Build(ctx, cfg, opts)
	if err != nil {
		return nil, nil, withExit(ExitConfigError, err)
	}
	return ctx, application, nil
}
