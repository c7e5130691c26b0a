package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/couchcryptid/meteo-precip-etl/internal/adapter/archive"
	"github.com/couchcryptid/meteo-precip-etl/internal/adapter/export"
	httpadapter "github.com/couchcryptid/meteo-precip-etl/internal/adapter/http"
	"github.com/couchcryptid/meteo-precip-etl/internal/config"
	"github.com/couchcryptid/meteo-precip-etl/internal/observability"
	"github.com/couchcryptid/meteo-precip-etl/internal/pipeline"
)

const pushJob = "precip_etl"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	runID := uuid.NewString()
	logger := observability.NewLogger(cfg).With("run_id", runID)
	metrics := observability.NewMetrics()

	dir := archive.NewDirectory(cfg.DataDir, cfg.ArchivePrefix, cfg.StationsPrefix, logger)
	reader := archive.NewReader(logger, metrics, nil)
	writer := export.NewWriter(cfg.OutputDataPath, cfg.OutputShapePath, logger)

	p := pipeline.New(dir, dir, reader, writer, logger, metrics, nil, cfg.Workers)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, prometheus.DefaultGatherer, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	logger.Info("starting compaction",
		"data_dir", cfg.DataDir,
		"output_data", cfg.OutputDataPath,
		"output_shape", cfg.OutputShapePath,
		"workers", cfg.Workers,
	)
	runErr := p.Run(ctx)
	if runErr != nil {
		logger.Error("pipeline error", "error", runErr)
	}

	if cfg.PushgatewayURL != "" {
		err := push.New(cfg.PushgatewayURL, pushJob).
			Gatherer(prometheus.DefaultGatherer).
			Grouping("run_id", runID).
			Push()
		if err != nil {
			logger.Error("metrics push error", "url", cfg.PushgatewayURL, "error", err)
		}
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	if runErr != nil {
		stop()
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
