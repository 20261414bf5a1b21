package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cuongbtq/media-batch/internal/bootstrap"
	"github.com/cuongbtq/media-batch/internal/config"
	"github.com/cuongbtq/media-batch/internal/report"
	"github.com/cuongbtq/media-batch/internal/worker"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	defaultConfigPath := os.Getenv("BATCH_WORKER_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/batch-worker/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateWorkerConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := bootstrap.NewLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	appLogger.Info("Starting batch worker",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
		slog.Int("concurrency", cfg.Batch.Concurrency),
	)

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to prepare directories: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ytdlp := bootstrap.NewFetcher(cfg, appLogger.Logger)
	if err := ytdlp.CheckDependencies(); err != nil {
		return err
	}

	deps := bootstrap.SchedulerDeps{Fetcher: ytdlp}
	if cfg.Database.Enabled() {
		dbClient, err := bootstrap.NewPostgreSQL(ctx, &cfg.Database, appLogger.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer dbClient.Close()

		store := report.NewPostgresStore(dbClient.DB(), appLogger.Logger)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		deps.Store = store
	}

	scheduler, err := bootstrap.NewScheduler(cfg, appLogger.Logger, deps)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	rabbitClient, err := bootstrap.NewRabbitMQ(ctx, &cfg.RabbitMQ, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}
	defer rabbitClient.Close()

	workerInstance, err := worker.NewWorker(&worker.Config{
		Logger:     appLogger.Logger,
		Source:     rabbitClient,
		Runner:     scheduler,
		BatchLoops: cfg.Worker.BatchLoops,
	})
	if err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- workerInstance.Start(ctx)
	}()

	appLogger.Info("Batch worker started")

	select {
	case err := <-errChan:
		if err != nil {
			appLogger.Error("Worker error", slog.String("error", err.Error()))
		}
		return err
	case <-ctx.Done():
		appLogger.Info("Received signal, shutting down gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer cancel()

	select {
	case err := <-errChan:
		if err != nil {
			return err
		}
		appLogger.Info("Worker stopped gracefully")
	case <-shutdownCtx.Done():
		appLogger.Warn("Worker shutdown timeout exceeded, forcing exit",
			slog.Int64("active_jobs", scheduler.Active()),
		)
	}

	appLogger.Info("Batch worker shutdown complete")
	return nil
}
