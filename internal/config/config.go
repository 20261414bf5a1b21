package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535

	// DefaultConcurrency is the number of jobs allowed to run at once
	DefaultConcurrency = 10
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `yaml:"app"`
	Logging  LoggingConfig  `yaml:"logging"`
	Batch    BatchConfig    `yaml:"batch"`
	Paths    PathsConfig    `yaml:"paths"`
	Fetcher  FetcherConfig  `yaml:"fetcher"`
	Sheet    SheetConfig    `yaml:"sheet"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Worker   WorkerConfig   `yaml:"worker"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableSource bool   `yaml:"enable_source"`
	TimeFormat   string `yaml:"time_format"`
}

// BatchConfig holds the scheduling limits of a batch run
type BatchConfig struct {
	Concurrency int           `yaml:"concurrency"`
	JobTimeout  time.Duration `yaml:"job_timeout"`
}

// PathsConfig holds the working directories
type PathsConfig struct {
	InputDir      string `yaml:"input_dir"`
	OutputDir     string `yaml:"output_dir"`
	LibrariesDir  string `yaml:"libraries_dir"`
	FailureReport string `yaml:"failure_report"`
}

// FetcherConfig holds the external downloader settings
type FetcherConfig struct {
	YTDLPPath  string   `yaml:"ytdlp_path"`
	FFmpegPath string   `yaml:"ffmpeg_path"`
	AudioExt   string   `yaml:"audio_ext"`
	VideoExt   string   `yaml:"video_ext"`
	ExtraArgs  []string `yaml:"extra_args"`
}

// SheetConfig holds the published spreadsheet source
type SheetConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// Enabled reports whether a database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// RabbitMQConfig holds RabbitMQ connection and exchange/queue configuration
type RabbitMQConfig struct {
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	User       string           `yaml:"user"`
	Password   string           `yaml:"password"`
	VHost      string           `yaml:"vhost"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Queue      QueueConfig      `yaml:"queue"`
	RoutingKey string           `yaml:"routing_key"`
	Connection ConnectionConfig `yaml:"connection"`
	Consumer   ConsumerConfig   `yaml:"consumer"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// QueueConfig holds RabbitMQ queue configuration
type QueueConfig struct {
	Name       string `yaml:"name"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
	Exclusive  bool   `yaml:"exclusive"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	Heartbeat         time.Duration `yaml:"heartbeat"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
}

// ConsumerConfig holds RabbitMQ consumer settings
type ConsumerConfig struct {
	PrefetchCount int  `yaml:"prefetch_count"`
	Exclusive     bool `yaml:"exclusive"`
}

// WorkerConfig holds worker service configuration
type WorkerConfig struct {
	BatchLoops      int           `yaml:"batch_loops"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns the configuration used when no file overrides a value
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:        "media-batch",
			Environment: "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stdout",
		},
		Batch: BatchConfig{
			Concurrency: DefaultConcurrency,
		},
		Paths: PathsConfig{
			InputDir:     "input",
			OutputDir:    "output",
			LibrariesDir: "libs",
		},
		Fetcher: FetcherConfig{
			AudioExt: "m4a",
			VideoExt: "mp4",
		},
		Sheet: SheetConfig{
			Timeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		},
		RabbitMQ: RabbitMQConfig{
			Port:  5672,
			VHost: "/",
			Exchange: ExchangeConfig{
				Type:    "direct",
				Durable: true,
			},
			Queue: QueueConfig{
				Durable: true,
			},
			Connection: ConnectionConfig{
				RetryAttempts:     5,
				RetryInterval:     2 * time.Second,
				Heartbeat:         10 * time.Second,
				ConnectionTimeout: 30 * time.Second,
			},
			Consumer: ConsumerConfig{
				PrefetchCount: 1,
			},
		},
		Worker: WorkerConfig{
			BatchLoops:      1,
			ShutdownTimeout: 30 * time.Second,
		},
	}
}

// Load reads the configuration file on top of the defaults
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// FailureReportPath returns the failure report location, defaulting to
// failed.txt inside the output directory
func (c *Config) FailureReportPath() string {
	if c.Paths.FailureReport != "" {
		return c.Paths.FailureReport
	}
	return filepath.Join(c.Paths.OutputDir, "failed.txt")
}

// ValidateBatchConfig checks the settings every batch run needs
func (c *Config) ValidateBatchConfig() error {
	if c.Batch.Concurrency <= 0 {
		return fmt.Errorf("batch concurrency must be greater than 0")
	}

	if c.Batch.JobTimeout < 0 {
		return fmt.Errorf("batch job_timeout must not be negative")
	}

	if c.Paths.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}

	if c.Paths.InputDir == "" {
		return fmt.Errorf("input directory is required")
	}

	if c.Sheet.URL != "" && c.Sheet.Timeout <= 0 {
		return fmt.Errorf("sheet timeout must be greater than 0")
	}

	return nil
}

// ValidateWorkerConfig checks the settings of the queue-driven worker
func (c *Config) ValidateWorkerConfig() error {
	if err := c.ValidateBatchConfig(); err != nil {
		return err
	}

	if err := c.validateRabbitMQ(); err != nil {
		return err
	}

	if c.RabbitMQ.Consumer.PrefetchCount <= 0 {
		return fmt.Errorf("rabbitmq consumer prefetch_count must be greater than 0")
	}

	if c.Worker.BatchLoops <= 0 {
		return fmt.Errorf("worker batch_loops must be greater than 0")
	}

	if c.Worker.ShutdownTimeout <= 0 {
		return fmt.Errorf("worker shutdown_timeout must be greater than 0")
	}

	return nil
}

// ValidateAPIConfig checks the settings of the HTTP API
func (c *Config) ValidateAPIConfig() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	return c.validateRabbitMQ()
}

func (c *Config) validateDatabase() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < MinPort || c.Database.Port > MaxPort {
		return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	return nil
}

func (c *Config) validateRabbitMQ() error {
	if c.RabbitMQ.Host == "" {
		return fmt.Errorf("rabbitmq host is required")
	}

	if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
		return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
	}

	if c.RabbitMQ.Exchange.Name == "" {
		return fmt.Errorf("rabbitmq exchange name is required")
	}

	if c.RabbitMQ.Queue.Name == "" {
		return fmt.Errorf("rabbitmq queue name is required")
	}

	return nil
}

// EnsureDirectories creates the input, output and libraries directories
func (c *Config) EnsureDirectories() error {
	var errs []error
	for _, dir := range []string{c.Paths.InputDir, c.Paths.OutputDir, c.Paths.LibrariesDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			errs = append(errs, fmt.Errorf("failed to create directory %s: %w", dir, err))
		}
	}
	return errors.Join(errs...)
}
