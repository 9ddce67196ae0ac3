package config

import (
	"path/filepath"
	"strings"

	"github.com/marmos91/dittometa/pkg/aliases"
	"github.com/marmos91/dittometa/pkg/filemeta"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Every backend section gets defaults, so a generated config file
//     documents all of them
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyStorageDefaults(&cfg.Storage)

	if cfg.Metadata.KeyPrefix == "" {
		cfg.Metadata.KeyPrefix = filemeta.DefaultKeyPrefix
	}
	if cfg.Aliases.KeyPrefix == "" {
		cfg.Aliases.KeyPrefix = aliases.DefaultKeyPrefix
	}

	applyMetricsDefaults(&cfg.Metrics)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	// stdout carries command output.
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

// applyStorageDefaults sets backend defaults.
func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.Type == "" {
		cfg.Type = "badger"
	}

	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if cfg.SQLite == nil {
		cfg.SQLite = make(map[string]any)
	}
	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}
	if cfg.Consul == nil {
		cfg.Consul = make(map[string]any)
	}

	setDefault(cfg.Badger, "db_path", filepath.Join(getDataDir(), "badger"))

	setDefault(cfg.SQLite, "path", filepath.Join(getDataDir(), "dittometa.db"))
	setDefault(cfg.SQLite, "busy_timeout", "5s")

	setDefault(cfg.S3, "region", "us-east-1")
	setDefault(cfg.S3, "key_prefix", "dittometa/")
	setDefault(cfg.S3, "max_retries", 10)

	setDefault(cfg.Consul, "address", "127.0.0.1:8500")
	setDefault(cfg.Consul, "prefix", "dittometa/")

	if cfg.RateLimit.RequestsPerSecond > 0 && cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = cfg.RateLimit.RequestsPerSecond
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func setDefault(section map[string]any, key string, value any) {
	if _, ok := section[key]; !ok {
		section[key] = value
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
