package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/cuongbtq/media-batch/internal/bootstrap"
	"github.com/cuongbtq/media-batch/internal/config"
	"github.com/cuongbtq/media-batch/internal/fetcher"
	"github.com/cuongbtq/media-batch/shared/logger"
	"github.com/joho/godotenv"
)

const defaultConfigPath = "configs/batchctl/config.yaml"

// mediaFetcher is a Fetcher that can report its external binaries
type mediaFetcher interface {
	fetcher.Fetcher
	Dependencies() fetcher.DependencyReport
	CheckDependencies() error
}

type commandContext struct {
	configFlag string

	cfg    *config.Config
	logger *logger.Logger

	newFetcher func(cfg *config.Config, logger *slog.Logger) mediaFetcher
}

func newCommandContext() *commandContext {
	return &commandContext{
		newFetcher: func(cfg *config.Config, logger *slog.Logger) mediaFetcher {
			return bootstrap.NewFetcher(cfg, logger)
		},
	}
}

// ensureConfig loads the configuration once. A missing default file falls
// back to built-in defaults; a missing explicit file is an error.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}

	_ = godotenv.Load()

	path := c.configFlag
	explicit := path != ""
	if !explicit {
		path = os.Getenv("BATCHCTL_CONFIG_PATH")
		explicit = path != ""
	}
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = config.Default()
	}

	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) ensureLogger() (*logger.Logger, error) {
	if c.logger != nil {
		return c.logger, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	log, err := bootstrap.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.logger = log
	return log, nil
}

func (c *commandContext) close() {
	if c.logger != nil {
		_ = c.logger.Close()
	}
}
