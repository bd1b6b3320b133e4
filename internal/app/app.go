// Package app wires configuration, adapters and services into runnable
// processes. Both binaries under cmd/ go through it.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"footprint/internal/adapters/filestore"
	httpadapter "footprint/internal/adapters/http"
	pg "footprint/internal/adapters/postgres"
	"footprint/internal/adapters/sources"
	"footprint/internal/config"
	"footprint/internal/ports"
	"footprint/internal/services/correlator"
	investigationsvc "footprint/internal/services/investigations"
	"footprint/internal/services/investigator"
	profilesvc "footprint/internal/services/profiles"
	runner "footprint/internal/workers/investigationrunner"
)

const (
	pollInterval    = 500 * time.Millisecond
	shutdownTimeout = 10 * time.Second
)

// NewInvestigator builds the orchestrator over every configured connector.
func NewInvestigator(cfg config.Config, logger *zap.Logger) *investigator.Service {
	return investigator.New(
		sources.Build(cfg, logger),
		correlator.New(logger),
		logger,
		investigator.Options{
			Timeout:        cfg.RequestTimeout,
			MaxConcurrency: cfg.MaxConcurrency,
			DefaultRegion:  cfg.DefaultRegion,
		},
	)
}

// Migrate applies pending database migrations.
func Migrate(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	db, err := pg.Connect(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Migrate(ctx)
}

// Serve runs the dashboard API and, when configured, the background workers
// until ctx is cancelled.
func Serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	db, err := pg.Connect(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return err
	}

	var (
		_ ports.InvestigationRepository = db
		_ ports.JobRepository           = db
	)
	investigations := investigationsvc.New(db, cfg.DefaultRegion)
	profiles := profilesvc.New(db, cfg.DefaultRegion)
	processor := runner.Pipeline{
		Investigations: db,
		Jobs:           db,
		Investigator:   NewInvestigator(cfg, logger),
		Store:          filestore.New(cfg.ResultsDir),
		Logger:         logger.Named("pipeline"),
	}
	srv := httpadapter.New(investigations, profiles, db, processor, logger)

	workersDone := make(chan struct{})
	if cfg.ScanWorkers > 0 {
		go func() {
			defer close(workersDone)
			runner.Run(ctx, db, processor, cfg.ScanWorkers, pollInterval, logger)
		}()
		logger.Info("Investigation workers started", zap.Int("workers", cfg.ScanWorkers))
	} else {
		close(workersDone)
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()
	logger.Info("Listening", zap.String("addr", cfg.ListenAddr))

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", zap.Error(err))
	}
	<-workersDone
	return nil
}
