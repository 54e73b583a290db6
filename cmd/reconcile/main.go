package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MGMAppDev/soccerview-sub009/internal/app"
	"github.com/MGMAppDev/soccerview-sub009/internal/config"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/logging"
	"github.com/MGMAppDev/soccerview-sub009/internal/usecase"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
)

// Version is set at build time.
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// cli carries the application built in PersistentPreRunE to the
// subcommands.
type cli struct {
	app    *app.App
	logger *logging.Logger
	span   trace.Span
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "reconcile",
		Short:         "Resolve, deduplicate and rebaseline youth soccer teams and matches",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return c.teardown(cmd.Context())
		},
	}

	root.AddCommand(
		newResolveCmd(c),
		newDedupMatchesCmd(c),
		newDedupTeamsCmd(c),
		newMergeCmd(c),
		newRebaselineCmd(c),
		newImportRatingsCmd(c),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	ctx := cmd.Context()
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return err
	}
	if cfg.ServiceVersion == "dev" {
		cfg.ServiceVersion = Version
	}

	logger := logging.New(logging.Options{
		Level:     cfg.LogLevel,
		FilePath:  cfg.LogFile,
		MaxSizeMB: cfg.LogMaxSizeMB,
	})
	logging.SetDefault(logger)
	c.logger = logger

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		_ = logger.Sync()
		return err
	}
	c.app = a

	// Every pass runs under one root span so its store calls nest in a
	// single trace.
	ctx, c.span = usecase.StartPassSpan(ctx, cmd.Name())
	cmd.SetContext(ctx)
	return nil
}

func (c *cli) teardown(ctx context.Context) error {
	var err error
	if c.span != nil {
		c.span.End()
		c.span = nil
	}
	if c.app != nil {
		if err = c.app.Close(context.WithoutCancel(ctx)); err != nil {
			c.logger.Error("close app", "error", err)
		}
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
	return err
}

// fail logs a command error and tears down, since cobra skips the post-run
// hook when RunE fails.
func (c *cli) fail(ctx context.Context, msg string, err error) error {
	c.logger.ErrorContext(ctx, msg, "error", err)
	_ = c.teardown(ctx)
	return err
}
