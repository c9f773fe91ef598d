package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"forecast/internal/amqp"
	"forecast/internal/config"
	applog "forecast/internal/log"
	"forecast/internal/services"
	"forecast/internal/storage"
	"forecast/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: applog.ComponentWorker})
	applog.SetDefault(logger)

	logger.Info("Starting alert-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the alert worker")
		os.Exit(1)
	}

	store, err := storage.New(storage.Config{
		Backend:      cfg.DataBackend,
		SQLiteDBPath: cfg.SQLiteDBPath,
	})
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// The worker only reads, so it publishes no events of its own.
	service := services.NewForecastService(store, nil, cfg.MaxRangeWeeks)
	alertWorker := worker.NewAlertWorker(service, cfg.AlertCheckInterval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeForecastChanged(ctx, alertWorker.HandleChangeMessage)
	})
	g.Go(func() error {
		alertWorker.RunSweep(ctx)
		return nil
	})

	logger.Info("Alert worker running",
		"queue", cfg.AMQPQueue,
		"sweep_interval", cfg.AlertCheckInterval.String())

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Error("Worker error", "error", err)
		os.Exit(1)
	}
	logger.Info("Alert worker stopped gracefully")
}
