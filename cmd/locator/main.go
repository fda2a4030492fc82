package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	httpadapter "github.com/couchcryptid/radar-archive-locator/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/radar-archive-locator/internal/adapter/kafka"
	"github.com/couchcryptid/radar-archive-locator/internal/config"
	"github.com/couchcryptid/radar-archive-locator/internal/convention"
	"github.com/couchcryptid/radar-archive-locator/internal/locator"
	"github.com/couchcryptid/radar-archive-locator/internal/observability"
	"github.com/couchcryptid/radar-archive-locator/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	loc := locator.New(convention.Default(), logger, metrics)
	logger.Info("locator configured",
		"radars", len(cfg.Locator.Radars),
		"convention", cfg.Locator.Convention,
		"run_frequency_hours", cfg.Locator.RunFrequency,
		"horizon_hours", cfg.Locator.Horizon,
		"workers", cfg.Locator.Workers,
	)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	resolver := pipeline.NewResolver(loc, cfg.Locator, logger)

	p := pipeline.New(reader, resolver, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, loc, cfg.Locator, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start request pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
