package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/cuongbtq/media-batch/internal/batch"
	"github.com/cuongbtq/media-batch/internal/batch/domain"
	"github.com/cuongbtq/media-batch/internal/bootstrap"
	"github.com/cuongbtq/media-batch/internal/ingest"
	"github.com/cuongbtq/media-batch/internal/report"
	"github.com/spf13/cobra"
)

type runOptions struct {
	concurrency int
	sheetURL    string
	skipSheet   bool
	files       []string
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Download every URL from the sheet and the input directory",
		Long: "Downloads the configured sheet first, then each .txt file of the input directory\n" +
			"in name order. Each source runs as its own batch.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatches(cmd.Context(), ctx, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "n", 0, "Maximum simultaneous downloads (overrides config)")
	cmd.Flags().StringVar(&opts.sheetURL, "sheet", "", "Published sheet URL (overrides config)")
	cmd.Flags().BoolVar(&opts.skipSheet, "no-sheet", false, "Skip the sheet source")
	cmd.Flags().StringSliceVarP(&opts.files, "file", "f", nil, "URL list file to run instead of the input directory")

	return cmd
}

func runBatches(ctx context.Context, cc *commandContext, opts *runOptions, out io.Writer) error {
	cfg, err := cc.ensureConfig()
	if err != nil {
		return err
	}
	if opts.concurrency > 0 {
		cfg.Batch.Concurrency = opts.concurrency
	}
	if opts.sheetURL != "" {
		cfg.Sheet.URL = opts.sheetURL
	}
	if opts.skipSheet {
		cfg.Sheet.URL = ""
	}

	if err := cfg.ValidateBatchConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := cc.ensureLogger()
	if err != nil {
		return err
	}
	logger := log.Logger

	if err := cfg.EnsureDirectories(); err != nil {
		return domain.NewSetupError("prepare directories", err)
	}

	media := cc.newFetcher(cfg, logger)
	if err := media.CheckDependencies(); err != nil {
		return domain.NewSetupError("check dependencies", err)
	}

	deps := bootstrap.SchedulerDeps{Fetcher: media}
	if cfg.Database.Enabled() {
		dbClient, err := bootstrap.NewPostgreSQL(ctx, &cfg.Database, logger)
		if err != nil {
			return domain.NewSetupError("connect database", err)
		}
		defer dbClient.Close()

		store := report.NewPostgresStore(dbClient.DB(), logger)
		if err := store.EnsureSchema(ctx); err != nil {
			return domain.NewSetupError("create schema", err)
		}
		deps.Store = store
	}

	scheduler, err := bootstrap.NewScheduler(cfg, logger, deps)
	if err != nil {
		return err
	}

	if cfg.Sheet.URL != "" {
		client := ingest.NewSheetClient(cfg.Sheet.Timeout, logger)
		urls, err := client.FetchURLs(ctx, cfg.Sheet.URL)
		if err != nil {
			// The local sources still run when the sheet is unavailable.
			logger.Error("Failed to load sheet", slog.String("error", err.Error()))
		} else if err := runSource(ctx, scheduler, logger, out, "sheet", urls); err != nil {
			return err
		}
	}

	sources, err := localSources(cfg.Paths.InputDir, opts.files)
	if err != nil {
		return err
	}
	for _, src := range sources {
		if err := runSource(ctx, scheduler, logger, out, src.Name, src.URLs); err != nil {
			return err
		}
	}

	return ctx.Err()
}

func localSources(inputDir string, files []string) ([]ingest.Source, error) {
	if len(files) == 0 {
		return ingest.ReadInputDir(inputDir)
	}

	sources := make([]ingest.Source, 0, len(files))
	for _, path := range files {
		urls, err := ingest.ReadURLFile(path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, ingest.Source{Name: filepath.Base(path), URLs: urls})
	}
	return sources, nil
}

func runSource(ctx context.Context, scheduler *batch.Scheduler, logger *slog.Logger, out io.Writer, name string, urls []string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	logger.Info("Processing source", slog.String("source", name), slog.Int("urls", len(urls)))

	summary, err := scheduler.Run(ctx, domain.NewWorkItems(urls))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s\n%s\n", name, report.RenderSummary(summary))
	return nil
}
