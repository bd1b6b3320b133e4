package main

import (
	"github.com/spf13/cobra"

	"footprint/internal/app"
)

func migrateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := g.setup()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			return app.Migrate(cmd.Context(), cfg, logger)
		},
	}
}

func serveCmd(g *globalFlags) *cobra.Command {
	var addr string
	var workers int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API and investigation workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := g.setup()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			if cmd.Flags().Changed("addr") {
				cfg.ListenAddr = addr
			}
			if cmd.Flags().Changed("workers") {
				cfg.ScanWorkers = workers
			}
			return app.Serve(cmd.Context(), cfg, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address (overrides LISTEN_ADDR)")
	cmd.Flags().IntVar(&workers, "workers", 0, "background workers (overrides SCAN_WORKERS)")
	return cmd
}
