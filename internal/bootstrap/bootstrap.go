// Package bootstrap builds the runtime components shared by the entrypoints
// from a loaded configuration.
package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"github.com/cuongbtq/media-batch/internal/batch"
	"github.com/cuongbtq/media-batch/internal/config"
	"github.com/cuongbtq/media-batch/internal/fetcher"
	"github.com/cuongbtq/media-batch/internal/report"
	"github.com/cuongbtq/media-batch/shared/logger"
	"github.com/cuongbtq/media-batch/shared/postgresql"
	"github.com/cuongbtq/media-batch/shared/rabbitmq"
)

// NewLogger initializes the application logger
func NewLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}

	return logger.New(&logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableSource,
		TimeFormat:   timeFormat,
	})
}

// NewPostgreSQL connects to the configured database
func NewPostgreSQL(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	return postgresql.NewClient(ctx, &postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}, logger)
}

// RabbitMQConfig maps the configuration section onto the client settings
func RabbitMQConfig(cfg *config.RabbitMQConfig) *rabbitmq.Config {
	return &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		RoutingKey:         cfg.RoutingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
		PrefetchCount:      cfg.Consumer.PrefetchCount,
		ConsumerExclusive:  cfg.Consumer.Exclusive,
	}
}

// NewRabbitMQ connects to the configured broker
func NewRabbitMQ(ctx context.Context, cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	return rabbitmq.NewClient(ctx, RabbitMQConfig(cfg), logger)
}

// NewFetcher builds the yt-dlp backed fetcher
func NewFetcher(cfg *config.Config, logger *slog.Logger) *fetcher.YTDLP {
	return fetcher.NewYTDLP(&fetcher.YTDLPConfig{
		LibrariesDir: cfg.Paths.LibrariesDir,
		YTDLPPath:    cfg.Fetcher.YTDLPPath,
		FFmpegPath:   cfg.Fetcher.FFmpegPath,
		ExtraArgs:    cfg.Fetcher.ExtraArgs,
		Logger:       logger,
	})
}

// SchedulerDeps are the optional sinks of a scheduler
type SchedulerDeps struct {
	Fetcher fetcher.Fetcher
	// Store, when set, records each run and its failures next to the
	// failure report file
	Store *report.PostgresStore
}

// NewScheduler wires the job runner, the failure exporter and the run
// recorder into a scheduler
func NewScheduler(cfg *config.Config, logger *slog.Logger, deps SchedulerDeps) (*batch.Scheduler, error) {
	runner := batch.NewRunner(&batch.RunnerConfig{
		Logger:     logger,
		Fetcher:    deps.Fetcher,
		OutputDir:  cfg.Paths.OutputDir,
		JobTimeout: cfg.Batch.JobTimeout,
		AudioExt:   cfg.Fetcher.AudioExt,
		VideoExt:   cfg.Fetcher.VideoExt,
	})

	var recorder batch.RunRecorder
	if deps.Store != nil {
		recorder = deps.Store
	}

	return batch.NewScheduler(&batch.SchedulerConfig{
		Logger:      logger,
		Runner:      runner,
		Concurrency: cfg.Batch.Concurrency,
		Exporter:    report.NewFileExporter(cfg.FailureReportPath(), logger),
		Recorder:    recorder,
	})
}
