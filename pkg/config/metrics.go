package config

import (
	"github.com/marmos91/dittometa/pkg/metrics"
	promMetrics "github.com/marmos91/dittometa/pkg/metrics/prometheus"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// Metadata is the collector for the metadata store (never nil, noop if disabled)
	Metadata metrics.StoreMetrics

	// Aliases is the collector for the alias store (never nil, noop if disabled)
	Aliases metrics.StoreMetrics
}

// InitializeMetrics creates and initializes all metrics components based on configuration.
//
// If metrics are enabled in the configuration:
//   - Initializes the global Prometheus registry
//   - Creates the metrics HTTP server
//   - Creates Prometheus-backed collectors for both stores
//
// If metrics are disabled:
//   - Returns nil server
//   - Returns no-op metrics implementations (zero overhead)
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{
			Metadata: metrics.NewNoopStoreMetrics(),
			Aliases:  metrics.NewNoopStoreMetrics(),
		}
	}

	metrics.InitRegistry()

	server := metrics.NewServer(metrics.ServerConfig{
		Port: cfg.Metrics.Port,
	})

	return &MetricsResult{
		Server:   server,
		Metadata: promMetrics.NewStoreMetrics("filemeta"),
		Aliases:  promMetrics.NewStoreMetrics("aliases"),
	}
}
