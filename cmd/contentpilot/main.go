package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/contentpilot/contentpilot-backend/internal/app"
	"github.com/contentpilot/contentpilot-backend/internal/platform/logger"
	"github.com/contentpilot/contentpilot-backend/internal/platform/shutdown"
)

func main() {
	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "contentpilot",
		Short:        "ContentPilot backend: workspace API and GPU video factory proxy",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newVideoCmd())
	return root
}

// loadRuntime reads config and builds the logger every subcommand shares.
func loadRuntime() (app.Config, *logger.Logger, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return app.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return app.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}
