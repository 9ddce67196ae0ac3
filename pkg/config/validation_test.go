package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_AcceptsLowercaseLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "warn"

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected lowercase level to pass validation, got: %v", err)
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "INVALID" },
			wantErr: "oneof",
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "oneof",
		},
		{
			name:    "empty log output",
			mutate:  func(c *Config) { c.Logging.Output = "" },
			wantErr: "required",
		},
		{
			name:    "unknown storage type",
			mutate:  func(c *Config) { c.Storage.Type = "postgres" },
			wantErr: "oneof",
		},
		{
			name:    "empty metadata prefix",
			mutate:  func(c *Config) { c.Metadata.KeyPrefix = "" },
			wantErr: "required",
		},
		{
			name:    "metrics port out of range",
			mutate:  func(c *Config) { c.Metrics.Port = 70000 },
			wantErr: "max",
		},
		{
			name:    "identical prefixes",
			mutate:  func(c *Config) { c.Aliases.KeyPrefix = c.Metadata.KeyPrefix },
			wantErr: "overlap",
		},
		{
			name: "nested prefixes",
			mutate: func(c *Config) {
				c.Metadata.KeyPrefix = "dm:"
				c.Aliases.KeyPrefix = "dm:aliases:"
			},
			wantErr: "overlap",
		},
		{
			name:    "burst without rate",
			mutate:  func(c *Config) { c.Storage.RateLimit.Burst = 5 },
			wantErr: "requests_per_second",
		},
		{
			name: "metrics enabled without port",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Port = 0
			},
			wantErr: "port is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}
