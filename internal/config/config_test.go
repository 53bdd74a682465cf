package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{
		Server:     ServerConfig{Addr: ":8080", ShutdownTimeoutSec: 10, ReadTimeoutSec: 10},
		Database:   DatabaseConfig{DSN: "postgres://localhost/hordegen", MaxOpenConns: 5},
		Migrations: MigrationsConfig{Path: "./migrations"},
		Kafka:      KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "generations", GroupID: "workers"},
		Storage:    StorageConfig{Type: "local", LocalPath: "/tmp/hordegen"},
		Logging:    LoggingConfig{Level: "info"},
	}
	applyDefaults(cfg)
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, "https://aihorde.net/api/v2", cfg.Horde.BaseURL)
	assert.Equal(t, anonymousAPIKey, cfg.Horde.APIKey)
	assert.Equal(t, 10, cfg.Horde.PollIntervalSec)
	assert.Equal(t, "png", cfg.Processing.OutputFormat)
	assert.Equal(t, "results", cfg.Storage.ResultDir)
}

func TestApplyDefaultsFlattensLists(t *testing.T) {
	cfg := &Config{
		Kafka: KafkaConfig{Brokers: []string{"k1:9092,k2:9092"}},
		Horde: HordeConfig{Models: []string{"stable_diffusion, Deliberate"}},
	}
	applyDefaults(cfg)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, []string{"stable_diffusion", "Deliberate"}, cfg.Horde.Models)
}

func TestValidateConfig(t *testing.T) {
	require.NoError(t, validateConfig(validConfig()))

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing addr", func(c *Config) { c.Server.Addr = "" }},
		{"missing dsn", func(c *Config) { c.Database.DSN = "" }},
		{"no brokers", func(c *Config) { c.Kafka.Brokers = nil }},
		{"unknown storage", func(c *Config) { c.Storage.Type = "ftp" }},
		{"s3 without bucket", func(c *Config) {
			c.Storage.Type = "s3"
			c.Storage.S3Endpoint = "minio:9000"
			c.Storage.S3AccessKey = "key"
			c.Storage.S3SecretKey = "secret"
		}},
		{"negative poll interval", func(c *Config) { c.Horde.PollIntervalSec = -1 }},
		{"bad output format", func(c *Config) { c.Processing.OutputFormat = "gif" }},
		{"missing log level", func(c *Config) { c.Logging.Level = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, validateConfig(cfg))
		})
	}
}
