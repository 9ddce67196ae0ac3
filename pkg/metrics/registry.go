// Package metrics provides Prometheus instrumentation for the metadata and
// alias stores.
//
// Metrics are opt-in. Until InitRegistry is called, constructors hand out
// no-op collectors, so the stores can always record without nil checks.
//
// Usage:
//
//	// In main, when metrics are enabled
//	metrics.InitRegistry()
//
//	// Per component
//	m := prometheus.NewStoreMetrics("filemeta")
//	store := filemeta.New(kvStore, filemeta.WithMetrics(m))
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// registry is written once by InitRegistry and read afterwards.
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry creates the global Prometheus registry.
//
// Subsequent calls are ignored. Go runtime and process collectors are
// registered alongside the store metrics.
func InitRegistry() {
	registryOnce.Do(func() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		registry = reg
	})
}

// GetRegistry returns the global registry, or nil if metrics are disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	return GetRegistry() != nil
}
