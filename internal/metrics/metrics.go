// Package metrics defines the Prometheus metrics of the alerting service.
//
// Metric naming follows Prometheus conventions:
//   - alerting_ prefix for all metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// FleetRequests counts listing requests by sort bound and outcome.
	FleetRequests *prometheus.CounterVec

	// FleetDuration measures listing latency by sort bound.
	FleetDuration *prometheus.HistogramVec

	// FleetTruncated counts aggregate-bounded listings that matched more
	// monitors than the safety cap allowed to materialize.
	FleetTruncated prometheus.Counter

	// MonitorOperations counts single-monitor operations by result.
	MonitorOperations *prometheus.CounterVec

	// StoreDuration measures store calls by store, operation and status.
	StoreDuration *prometheus.HistogramVec

	// CircuitBreakerState is 0 when closed, 1 when half-open, 2 when open.
	CircuitBreakerState *prometheus.GaugeVec
}

// NewMetrics registers the metrics with reg. A nil reg registers them with a
// private registry that is never exported.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		FleetRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "alerting_fleet_requests_total",
			Help: "Total number of monitor fleet listing requests.",
		}, []string{"bound", "status"}),

		FleetDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "alerting_fleet_request_duration_seconds",
			Help:    "Histogram of monitor fleet listing latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"bound"}),

		FleetTruncated: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "alerting_fleet_truncated_total",
			Help: "Total number of listings cut off by the monitor safety cap.",
		}),

		MonitorOperations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "alerting_monitor_operations_total",
			Help: "Total number of single monitor operations by result.",
		}, []string{"operation", "result"}),

		StoreDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "alerting_store_request_duration_seconds",
			Help:    "Histogram of store request latencies.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"store", "operation", "status"}),

		CircuitBreakerState: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "alerting_circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 1=half-open, 2=open).",
		}, []string{"name"}),
	}
}

// ObserveStore records the duration of one store call started at start.
func (m *Metrics) ObserveStore(store, operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.StoreDuration.WithLabelValues(store, operation, status).Observe(time.Since(start).Seconds())
}
