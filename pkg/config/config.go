package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete DittoMeta configuration.
//
// This structure captures all configurable aspects of DittoMeta:
//   - Logging configuration
//   - Durable storage backend selection and configuration (backend-specific)
//   - Record key prefixes for item metadata and aliases
//   - Metrics endpoint
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (DITTOMETA_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
//
// Storage Configuration Pattern:
// Each backend defines its own configuration type in pkg/kv/<backend>. The
// Storage section holds one map per backend and only the section matching
// the selected type is decoded.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Storage selects and configures the durable key-value backend
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`

	// Metadata configures the per-item metadata store
	Metadata MetadataConfig `mapstructure:"metadata" yaml:"metadata"`

	// Aliases configures the alias store
	Aliases AliasesConfig `mapstructure:"aliases" yaml:"aliases"`

	// Metrics configures the Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// StorageConfig specifies the durable key-value backend.
//
// The Type field determines which backend is used.
// Only the corresponding type-specific section is used.
type StorageConfig struct {
	// Type specifies which backend to use
	// Valid values: memory, badger, sqlite, s3, consul
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory badger sqlite s3 consul"`

	// Memory contains memory-specific configuration (currently none)
	Memory map[string]any `mapstructure:"memory" yaml:"memory"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger" yaml:"badger"`

	// SQLite contains SQLite-specific configuration
	// Only used when Type = "sqlite"
	SQLite map[string]any `mapstructure:"sqlite" yaml:"sqlite"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3" yaml:"s3"`

	// Consul contains Consul-specific configuration
	// Only used when Type = "consul"
	Consul map[string]any `mapstructure:"consul" yaml:"consul"`

	// RateLimit throttles calls to the backend
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// RateLimitConfig throttles calls to the durable backend.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained call rate. 0 disables limiting.
	RequestsPerSecond uint `mapstructure:"requests_per_second" yaml:"requests_per_second"`

	// Burst is the number of calls allowed above the sustained rate.
	// Defaults to RequestsPerSecond when limiting is enabled.
	Burst uint `mapstructure:"burst" yaml:"burst"`
}

// MetadataConfig configures the per-item metadata store.
type MetadataConfig struct {
	// KeyPrefix is prepended to the item id to form the record key
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix" validate:"required,max=64"`

	// LoadOnStart hydrates every record into memory when the store opens
	LoadOnStart bool `mapstructure:"load_on_start" yaml:"load_on_start"`
}

// AliasesConfig configures the alias store.
type AliasesConfig struct {
	// KeyPrefix is prepended to the alias name to form the record key
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix" validate:"required,max=64"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled starts the metrics HTTP server
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port for the metrics HTTP server
	Port int `mapstructure:"port" yaml:"port" validate:"omitempty,min=1,max=65535"`
}

// envKeys are bound explicitly so environment variables apply even when no
// config file mentions the key.
var envKeys = []string{
	"logging.level",
	"logging.format",
	"logging.output",
	"storage.type",
	"storage.rate_limit.requests_per_second",
	"storage.rate_limit.burst",
	"metadata.key_prefix",
	"metadata.load_on_start",
	"aliases.key_prefix",
	"metrics.enabled",
	"metrics.port",
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (DITTOMETA_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Example: DITTOMETA_STORAGE_TYPE=sqlite
	v.SetEnvPrefix("DITTOMETA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/dittometa/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		// An explicit path that does not exist is not a ConfigFileNotFoundError.
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dittometa")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "dittometa")
}

// getDataDir returns the directory for local database files.
//
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func getDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "dittometa")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "dittometa")
	}

	return filepath.Join(home, ".local", "share", "dittometa")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
