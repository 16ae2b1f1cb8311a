package elasticsearch

import (
	"context"
	"errors"
	"time"

	"github.com/hamersu9t/alerting-dashboards-plugin/internal/config"
	"github.com/hamersu9t/alerting-dashboards-plugin/internal/logger"
	"github.com/hamersu9t/alerting-dashboards-plugin/internal/metrics"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// newBreaker trips after cfg.ConsecutiveFailures failed calls and then
// rejects calls until cfg.TimeoutSeconds have passed. Rejected calls fail
// immediately; nothing is retried.
func newBreaker(name string, cfg config.BreakerConfig, m *metrics.Metrics) *gobreaker.CircuitBreaker {
	failures := cfg.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.IntervalSeconds) * time.Second,
		Timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// a caller giving up says nothing about the cluster
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}
