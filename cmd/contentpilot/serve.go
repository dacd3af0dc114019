package main

import (
	"github.com/spf13/cobra"

	"github.com/contentpilot/contentpilot-backend/internal/app"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server until SIGINT/SIGTERM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadRuntime()
			if err != nil {
				return err
			}
			defer log.Sync()
			if addr != "" {
				cfg.HTTP.Addr = addr
			}

			a, err := app.New(cmd.Context(), log, cfg)
			if err != nil {
				log.Error("Failed to initialize app", "error", err)
				return err
			}
			log.Info("Starting server", "addr", cfg.HTTP.Addr)
			return a.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}
