// Package config provides centralized configuration management for the commands.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"path/filepath"
	"time"

	"github.com/prof-ramos/planilhas-gov-br/internal/sink"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Paths   PathsConfig
	Sink    SinkConfig
	Upload  UploadConfig
	Migrate MigrateConfig
	Metrics MetricsConfig
	Logging LoggingConfig
}

// PathsConfig holds the input and output directories.
type PathsConfig struct {
	// Root is the project root containing data/raw and data/processed (default: .)
	Root string `env:"DATA_ROOT" default:"."`

	// Raw overrides <Root>/data/raw
	Raw string `env:"RAW_DIR"`

	// Processed overrides <Root>/data/processed
	Processed string `env:"PROCESSED_DIR"`
}

// RawDir returns the directory scanned for spreadsheets.
func (p PathsConfig) RawDir() string {
	if p.Raw != "" {
		return p.Raw
	}
	return filepath.Join(p.Root, "data", "raw")
}

// ProcessedDir returns the directory the artifacts are written to.
func (p PathsConfig) ProcessedDir() string {
	if p.Processed != "" {
		return p.Processed
	}
	return filepath.Join(p.Root, "data", "processed")
}

// SinkConfig selects and configures the upload destination.
type SinkConfig struct {
	// Kind is the sink backend: rest, postgres, sqlite or mssql (default: rest)
	Kind string `env:"SINK_KIND" default:"rest"`

	// URL is the project URL for the rest sink
	URL string `env:"SUPABASE_URL"`

	// Key is the service role key for the rest sink
	Key string `env:"SUPABASE_SERVICE_ROLE_KEY"`

	// DSN is the connection string for the database sinks.
	// Supports both SINK_DSN and DATABASE_URL env vars.
	DSN string `env:"SINK_DSN" envAlt:"DATABASE_URL"`

	// Table is the destination collection (default: government_data)
	Table string `env:"SINK_TABLE" default:"government_data"`

	// Timeout bounds each request or connection attempt (default: 60s)
	Timeout time.Duration `env:"SINK_TIMEOUT" default:"60s"`
}

// ToSink converts the settings to the sink package's form.
func (c SinkConfig) ToSink() sink.Config {
	return sink.Config{
		Kind:    c.Kind,
		URL:     c.URL,
		Key:     c.Key,
		DSN:     c.DSN,
		Timeout: c.Timeout,
	}
}

// UploadConfig holds batch upload settings.
type UploadConfig struct {
	// BatchSize is the number of rows to insert per batch (default: 1000)
	BatchSize int `env:"UPLOAD_BATCH_SIZE" default:"1000"`

	// HashColumn, when set, receives a content hash used to skip rows already uploaded
	HashColumn string `env:"UPLOAD_HASH_COLUMN"`
}

// MigrateConfig holds schema migration settings.
type MigrateConfig struct {
	// DirectURL is the non-pooled PostgreSQL connection for the direct strategy
	DirectURL string `env:"POSTGRES_URL_NON_POOLING"`

	// Strategies are tried in order until one succeeds (default: rpc,direct)
	Strategies []string `env:"MIGRATE_STRATEGIES" default:"rpc,direct"`

	// RPCFunction is the database function the rpc strategy calls (default: exec_sql)
	RPCFunction string `env:"MIGRATE_RPC_FUNCTION" default:"exec_sql"`
}

// MetricsConfig holds metrics export settings.
type MetricsConfig struct {
	// Backend is none or datadog (default: none)
	Backend string `env:"METRICS_BACKEND" default:"none"`

	// Job tags every series (default: planilhas)
	Job string `env:"METRICS_JOB" default:"planilhas"`

	// Tags is a comma-separated list of extra key:value tags
	Tags []string `env:"METRICS_TAGS"`

	// FlushEvery is the submission interval (default: 60s)
	FlushEvery time.Duration `env:"METRICS_FLUSH_EVERY" default:"60s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}
