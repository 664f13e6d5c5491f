// Package metrics exposes Prometheus metrics for the Corten framework.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScopeDuration tracks wall-clock duration of instrumentation scopes.
	ScopeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "profiler_scope_duration_seconds",
		Help:    "Duration of named instrumentation scopes",
		Buckets: prometheus.DefBuckets,
	}, []string{"scope"})

	// KernelDispatches counts operator dispatches by chosen path.
	KernelDispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pool_kernel_dispatch_total",
		Help: "Total pooling dispatches by path (native, global, mean, generic)",
	}, []string{"operation", "path"})

	// ValidationErrors counts operator contract violations.
	ValidationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pool_validation_errors_total",
		Help: "Total number of shape/dtype validation errors",
	}, []string{"operation", "error_type"})
)

// RecordScope records a completed instrumentation scope.
func RecordScope(name string, d time.Duration) {
	ScopeDuration.WithLabelValues(name).Observe(d.Seconds())
}

// RecordDispatch records one pooling dispatch on the given path.
func RecordDispatch(operation, path string) {
	KernelDispatches.WithLabelValues(operation, path).Inc()
}

// RecordValidationError records one contract violation.
func RecordValidationError(operation, errorType string) {
	ValidationErrors.WithLabelValues(operation, errorType).Inc()
}
