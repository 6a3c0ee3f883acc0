package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/claim-assessor/internal/bootstrap"
	"github.com/kirillkom/claim-assessor/internal/config"
	"github.com/kirillkom/claim-assessor/internal/core/domain"
	"github.com/kirillkom/claim-assessor/internal/observability/logging"
	"github.com/kirillkom/claim-assessor/internal/observability/metrics"
)

const service = "claims-worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(service)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Service:    service,
		Logger:     logger,
		Registerer: workerMetrics.Registry(),
	})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	timeout := time.Duration(cfg.WorkerTimeoutSeconds) * time.Second
	logger.Info("worker_subscribed", "subject", cfg.NATSSubmittedSubject, "queue_group", cfg.NATSQueueGroup)
	err = app.Queue.SubscribeFNOLSubmitted(ctx, func(handlerCtx context.Context, fnol domain.FNOL) error {
		assessCtx, cancel := context.WithTimeout(handlerCtx, timeout)
		defer cancel()

		workerMetrics.StartFNOL()
		started := time.Now()
		_, err := app.AssessUC.Assess(assessCtx, fnol)
		workerMetrics.FinishFNOL(service, time.Since(started), err)
		return err
	})
	if err != nil {
		logger.Error("worker_subscribe_failed", "error", err)
	}
}
