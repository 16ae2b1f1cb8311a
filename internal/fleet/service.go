// Package fleet lists monitors together with the alert activity they
// produced, and forwards single-monitor operations to the stores.
//
// A listing joins two stores: monitor definitions live in a primary store,
// alert events in a much larger secondary store. Sorting by a field the
// primary store owns lets it paginate; sorting by an aggregated field forces
// every matching monitor (up to Limits.MaxMonitors) to be joined and paged
// in memory.
package fleet

import (
	"context"
	"time"

	"github.com/hamersu9t/alerting-dashboards-plugin/internal/logger"
	"github.com/hamersu9t/alerting-dashboards-plugin/internal/metrics"

	"go.uber.org/zap"
)

type Service struct {
	monitors MonitorStore
	alerts   AlertStore
	alerting AlertingAPI
	limits   Limits
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewService(monitors MonitorStore, alerts AlertStore, alerting AlertingAPI, limits Limits, m *metrics.Metrics) *Service {
	if limits.MaxMonitors <= 0 {
		limits.MaxMonitors = MaxMonitors
	}
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	return &Service{
		monitors: monitors,
		alerts:   alerts,
		alerting: alerting,
		limits:   limits,
		metrics:  m,
		now:      time.Now,
	}
}

// ListMonitors returns one sorted page of monitors joined with their alert
// statistics. TotalMonitors counts every monitor matching the filter,
// whether or not it has alerts.
func (s *Service) ListMonitors(ctx context.Context, req ListRequest) (ListResult, error) {
	filter, err := BuildFilter(req.Search, StateFilter(req.State))
	if err != nil {
		return ListResult{}, err
	}
	plan, err := NewSortPlan(req.SortField, req.SortDirection, req.From, req.Size, s.limits)
	if err != nil {
		return ListResult{}, err
	}

	start := time.Now()
	result, err := s.list(ctx, filter, plan)
	s.metrics.FleetDuration.WithLabelValues(plan.Bound.String()).Observe(time.Since(start).Seconds())

	status := "ok"
	if err != nil {
		status = "error"
		logger.Error("Failed to list monitors",
			zap.String("sort_field", string(plan.Key)),
			zap.String("bound", plan.Bound.String()),
			zap.Error(err),
		)
	}
	s.metrics.FleetRequests.WithLabelValues(plan.Bound.String(), status).Inc()

	return result, err
}

func (s *Service) list(ctx context.Context, filter Filter, plan SortPlan) (ListResult, error) {
	monitors, total, err := fetchMonitors(ctx, s.monitors, filter, plan, s.limits)
	if err != nil {
		return ListResult{}, err
	}

	if plan.Bound == AggregateBounded && total > int64(len(monitors.order)) {
		s.metrics.FleetTruncated.Inc()
		logger.Warn("Monitor count exceeds safety cap, listing is incomplete",
			zap.Int64("total", total),
			zap.Int("cap", s.limits.MaxMonitors),
		)
	}

	stats, err := aggregateStats(ctx, s.alerts, monitors.ids(), plan)
	if err != nil {
		return ListResult{}, err
	}

	entries := mergeFleet(monitors, stats, s.now())
	return ListResult{
		Monitors:      sortAndPage(entries, plan),
		TotalMonitors: total,
	}, nil
}
