package prometheus

import (
	"sync"
	"time"

	"github.com/marmos91/dittometa/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors holds the metric vectors shared by every component.
//
// Vectors are registered once per registry; each component gets a view
// through For, which fixes the "component" label.
type Collectors struct {
	operationsTotal    *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec
	storageOpsTotal    *prometheus.CounterVec
	storageOpsDuration *prometheus.HistogramVec
	trackedEntries     *prometheus.GaugeVec
}

var (
	globalCollectors     *Collectors
	globalCollectorsOnce sync.Once
)

// NewStoreMetrics returns Prometheus-backed metrics for component on the
// global registry.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry not called).
func NewStoreMetrics(component string) metrics.StoreMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopStoreMetrics()
	}

	globalCollectorsOnce.Do(func() {
		globalCollectors = NewCollectors(metrics.GetRegistry())
	})
	return globalCollectors.For(component)
}

// NewCollectors registers the store metric vectors on reg.
//
// Registering twice on the same registry panics; use one Collectors per registry.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	factory := promauto.With(reg)

	return &Collectors{
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittometa_operations_total",
				Help: "Total number of store operations by component, operation, and status",
			},
			[]string{"component", "operation", "status"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dittometa_operation_duration_seconds",
				Help: "Duration of store operations in seconds, including per-item queue wait",
				Buckets: []float64{
					0.0001, // 100µs
					0.001,  // 1ms
					0.01,   // 10ms
					0.05,   // 50ms
					0.1,    // 100ms
					0.5,    // 500ms
					1.0,    // 1s
					5.0,    // 5s
				},
			},
			[]string{"component", "operation"},
		),
		storageOpsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittometa_storage_operations_total",
				Help: "Total number of durable kv calls (get, set, delete, list)",
			},
			[]string{"component", "operation", "status"},
		),
		storageOpsDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dittometa_storage_operation_duration_seconds",
				Help: "Duration of durable kv calls in seconds",
				Buckets: []float64{
					0.0001, // 100µs
					0.0005, // 500µs
					0.001,  // 1ms
					0.005,  // 5ms
					0.025,  // 25ms
					0.1,    // 100ms
					0.5,    // 500ms
				},
			},
			[]string{"component", "operation"},
		),
		trackedEntries: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dittometa_tracked_entries",
				Help: "Number of entries currently held in memory by component",
			},
			[]string{"component"},
		),
	}
}

// For returns the metrics view for one component.
func (c *Collectors) For(component string) metrics.StoreMetrics {
	return &storeMetrics{component: component, c: c}
}

// storeMetrics is the Prometheus implementation of metrics.StoreMetrics.
type storeMetrics struct {
	component string
	c         *Collectors
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (m *storeMetrics) RecordOperation(operation string, duration time.Duration, err error) {
	m.c.operationsTotal.WithLabelValues(m.component, operation, status(err)).Inc()
	m.c.operationDuration.WithLabelValues(m.component, operation).Observe(duration.Seconds())
}

func (m *storeMetrics) RecordStorageOperation(operation string, duration time.Duration, err error) {
	m.c.storageOpsTotal.WithLabelValues(m.component, operation, status(err)).Inc()
	m.c.storageOpsDuration.WithLabelValues(m.component, operation).Observe(duration.Seconds())
}

func (m *storeMetrics) SetTrackedEntries(count int) {
	m.c.trackedEntries.WithLabelValues(m.component).Set(float64(count))
}
