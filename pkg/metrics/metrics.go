// Package metrics exposes Prometheus instrumentation for record persistence.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// ResultSuccess labels an operation that returned no error
	ResultSuccess = "success"
)

// Recorder holds all Prometheus metrics for the persistence adapters.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTotal        *prometheus.CounterVec
	namespaceErasures *prometheus.CounterVec
	capacityOverruns  *prometheus.CounterVec
}

// NewRecorder creates and registers all metrics with reg
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nvrecord_operations_total",
				Help: "Total number of record save and load operations",
			},
			[]string{"backend", "operation", "result"},
		),

		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nvrecord_operation_duration_seconds",
				Help:    "Record save and load duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend", "operation"},
		),

		bytesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nvrecord_bytes_total",
				Help: "Total payload bytes successfully saved or loaded",
			},
			[]string{"backend", "operation"},
		),

		namespaceErasures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nvrecord_namespace_erasures_total",
				Help: "Total number of namespaces erased to reclaim space",
			},
			[]string{"backend"},
		),

		capacityOverruns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nvrecord_capacity_overruns_total",
				Help: "Total number of saves that exceeded the configured used size",
			},
			[]string{"backend"},
		),
	}
}

// RecordOperation records the outcome of one save or load
func (r *Recorder) RecordOperation(backend, operation, result string, payloadBytes int, duration time.Duration) {
	if r == nil {
		return
	}

	r.operationsTotal.WithLabelValues(backend, operation, result).Inc()
	r.operationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if result == ResultSuccess {
		r.bytesTotal.WithLabelValues(backend, operation).Add(float64(payloadBytes))
	}
}

// RecordNamespaceErasure records a destructive namespace erase
func (r *Recorder) RecordNamespaceErasure(backend string) {
	if r == nil {
		return
	}
	r.namespaceErasures.WithLabelValues(backend).Inc()
}

// RecordCapacityOverrun records a save that went past the used-size budget
func (r *Recorder) RecordCapacityOverrun(backend string) {
	if r == nil {
		return
	}
	r.capacityOverruns.WithLabelValues(backend).Inc()
}
