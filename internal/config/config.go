package config

import (
	"fmt"
	"os"

	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/hordegen/internal/helpers"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Migrations MigrationsConfig `mapstructure:"migrations"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Horde      HordeConfig      `mapstructure:"horde"`
	Processing ProcessingConfig `mapstructure:"processing"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Addr               string `mapstructure:"addr"`
	ShutdownTimeoutSec int    `mapstructure:"shutdown_timeout_sec"`
	ReadTimeoutSec     int    `mapstructure:"read_timeout_sec"`
	WriteTimeoutSec    int    `mapstructure:"write_timeout_sec"`
}

type DatabaseConfig struct {
	DSN                  string `mapstructure:"dsn"`
	Slaves               string `mapstructure:"slaves"`
	MaxOpenConns         int    `mapstructure:"max_open_conns"`
	MaxIdleConns         int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSec   int    `mapstructure:"conn_max_lifetime_sec"`
	ConnectRetries       int    `mapstructure:"connect_retries"`
	ConnectRetryDelaySec int    `mapstructure:"connect_retry_delay_sec"`
}

type MigrationsConfig struct {
	Path string `mapstructure:"path"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type StorageConfig struct {
	Type      string `mapstructure:"type"`
	LocalPath string `mapstructure:"local_path"`
	ResultDir string `mapstructure:"result_dir"`

	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`
	S3Bucket    string `mapstructure:"s3_bucket"`
	S3Region    string `mapstructure:"s3_region"`
	S3UseSSL    bool   `mapstructure:"s3_use_ssl"`
}

type HordeConfig struct {
	BaseURL           string   `mapstructure:"base_url"`
	APIKey            string   `mapstructure:"api_key"`
	ClientAgent       string   `mapstructure:"client_agent"`
	Models            []string `mapstructure:"models"`
	PollIntervalSec   int      `mapstructure:"poll_interval_sec"`
	RequestTimeoutSec int      `mapstructure:"request_timeout_sec"`
	JobTimeoutSec     int      `mapstructure:"job_timeout_sec"`
	RateLimitPerSec   float64  `mapstructure:"rate_limit_per_sec"`
	RateBurst         int      `mapstructure:"rate_burst"`
}

type ProcessingConfig struct {
	OutputFormat    string `mapstructure:"output_format"`
	OutputQuality   int    `mapstructure:"output_quality"`
	SourceMaxWidth  int    `mapstructure:"source_max_width"`
	SourceMaxHeight int    `mapstructure:"source_max_height"`
	MaxAssetSizeMB  int    `mapstructure:"max_asset_size_mb"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

func Load(path string) (*Config, error) {
	cfg := config.New()

	configPath := path
	if configPath == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			configPath = "config.yaml"
		} else if _, err := os.Stat("/app/config.yaml"); err == nil {
			configPath = "/app/config.yaml"
		} else {
			return nil, fmt.Errorf("config.yaml not found")
		}
	}

	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = ""
	}

	if err := cfg.Load(configPath, envPath, "APP"); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	appConfig := &Config{}
	if err := cfg.Unmarshal(appConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(appConfig)

	if err := validateConfig(appConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	zlog.Logger.Info().
		Str("horde_base_url", appConfig.Horde.BaseURL).
		Int("poll_interval_sec", appConfig.Horde.PollIntervalSec).
		Str("storage_type", appConfig.Storage.Type).
		Str("output_format", appConfig.Processing.OutputFormat).
		Msg("Config loaded successfully via wbf")

	return appConfig, nil
}

// anonymousAPIKey is the shared key AI Horde accepts for unregistered clients.
const anonymousAPIKey = "0000000000"

func applyDefaults(cfg *Config) {
	cfg.Kafka.Brokers = helpers.FlattenList(cfg.Kafka.Brokers)
	cfg.Horde.Models = helpers.FlattenList(cfg.Horde.Models)

	if cfg.Horde.BaseURL == "" {
		cfg.Horde.BaseURL = "https://aihorde.net/api/v2"
	}
	if cfg.Horde.APIKey == "" {
		cfg.Horde.APIKey = anonymousAPIKey
	}
	if cfg.Horde.ClientAgent == "" {
		cfg.Horde.ClientAgent = "hordegen:1.0:github.com/yokitheyo/hordegen"
	}
	if cfg.Horde.PollIntervalSec == 0 {
		cfg.Horde.PollIntervalSec = 10
	}
	if cfg.Horde.RequestTimeoutSec == 0 {
		cfg.Horde.RequestTimeoutSec = 30
	}
	if cfg.Processing.OutputFormat == "" {
		cfg.Processing.OutputFormat = "png"
	}
	if cfg.Processing.OutputQuality == 0 {
		cfg.Processing.OutputQuality = 95
	}
	if cfg.Storage.ResultDir == "" {
		cfg.Storage.ResultDir = "results"
	}
}

func validateConfig(cfg *Config) error {
	// Server
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if cfg.Server.ShutdownTimeoutSec <= 0 {
		return fmt.Errorf("server.shutdown_timeout_sec must be positive")
	}
	if cfg.Server.ReadTimeoutSec <= 0 {
		return fmt.Errorf("server.read_timeout_sec must be positive")
	}
	if cfg.Server.WriteTimeoutSec < 0 {
		return fmt.Errorf("server.write_timeout_sec must be non-negative")
	}

	// Database
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if cfg.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if cfg.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns must be non-negative")
	}

	// Migrations
	if cfg.Migrations.Path == "" {
		return fmt.Errorf("migrations.path is required")
	}

	// Kafka
	if len(cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers must contain at least one broker")
	}
	if cfg.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required")
	}
	if cfg.Kafka.GroupID == "" {
		return fmt.Errorf("kafka.group_id is required")
	}

	// Storage
	if cfg.Storage.Type != "local" && cfg.Storage.Type != "s3" {
		return fmt.Errorf("storage.type must be 'local' or 's3'")
	}
	if cfg.Storage.Type == "local" && cfg.Storage.LocalPath == "" {
		return fmt.Errorf("storage.local_path is required for local storage")
	}
	if cfg.Storage.Type == "s3" {
		if cfg.Storage.S3Endpoint == "" {
			return fmt.Errorf("storage.s3_endpoint is required for s3 storage")
		}
		if cfg.Storage.S3Bucket == "" {
			return fmt.Errorf("storage.s3_bucket is required for s3 storage")
		}
		if cfg.Storage.S3AccessKey == "" || cfg.Storage.S3SecretKey == "" {
			return fmt.Errorf("storage.s3_access_key and storage.s3_secret_key are required for s3 storage")
		}
	}

	// Horde
	if cfg.Horde.PollIntervalSec <= 0 {
		return fmt.Errorf("horde.poll_interval_sec must be positive")
	}
	if cfg.Horde.RequestTimeoutSec <= 0 {
		return fmt.Errorf("horde.request_timeout_sec must be positive")
	}
	if cfg.Horde.JobTimeoutSec < 0 {
		return fmt.Errorf("horde.job_timeout_sec must be non-negative")
	}
	if cfg.Horde.RateLimitPerSec < 0 || cfg.Horde.RateBurst < 0 {
		return fmt.Errorf("horde.rate_limit_per_sec and horde.rate_burst must be non-negative")
	}

	// Processing
	if cfg.Processing.OutputFormat != "png" && cfg.Processing.OutputFormat != "jpeg" {
		return fmt.Errorf("processing.output_format must be 'png' or 'jpeg'")
	}
	if cfg.Processing.OutputQuality < 1 || cfg.Processing.OutputQuality > 100 {
		return fmt.Errorf("processing.output_quality must be in 1..100")
	}

	if cfg.Logging.Level == "" {
		return fmt.Errorf("logging.level is required")
	}

	return nil
}
