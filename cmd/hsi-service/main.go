package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/shark-hsi-service/internal/adapter/griddata"
	httpadapter "github.com/couchcryptid/shark-hsi-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/shark-hsi-service/internal/adapter/kafka"
	"github.com/couchcryptid/shark-hsi-service/internal/config"
	"github.com/couchcryptid/shark-hsi-service/internal/domain"
	"github.com/couchcryptid/shark-hsi-service/internal/engine"
	"github.com/couchcryptid/shark-hsi-service/internal/observability"
	"github.com/couchcryptid/shark-hsi-service/internal/pipeline"
	"github.com/couchcryptid/shark-hsi-service/internal/species"
)

// computeTimeout bounds one synchronous POST /hsi request.
const computeTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	registry := species.Defaults()
	if cfg.SpeciesFile != "" {
		registry, err = species.LoadFile(cfg.SpeciesFile)
		if err != nil {
			logger.Error("failed to load species file", "error", err)
			os.Exit(1)
		}
	}
	logger.Info("species registry loaded", "species", registry.Keys())

	var source domain.GridSource
	if cfg.GridSourceDir != "" {
		source = griddata.NewDir(cfg.GridSourceDir)
		logger.Info("reading grids from directory", "dir", cfg.GridSourceDir)
	} else {
		source = griddata.NewClient(cfg.GridSourceURL, cfg.GridFetchTimeout, logger, metrics)
		logger.Info("reading grids from grid service", "url", cfg.GridSourceURL, "timeout", cfg.GridFetchTimeout)
	}
	source = griddata.NewCachedSource(source, cfg.GridCacheSize, metrics)

	transformer := pipeline.NewTransformer(registry, source, pipeline.TransformerConfig{
		Resolution:    cfg.GridResolution,
		HotspotLimit:  cfg.HotspotLimit,
		EngineOptions: []engine.Option{engine.WithWindow(cfg.LagWindowDays)},
	}, logger, metrics)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger,
		httpadapter.WithSpecies(registry),
		httpadapter.WithComputer(transformer, computeTimeout),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start HSI pipeline.
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
