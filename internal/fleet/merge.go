package fleet

import (
	"time"

	"github.com/hamersu9t/alerting-dashboards-plugin/internal/logger"

	"go.uber.org/zap"
)

// mergeFleet joins monitors with their stats. Stats are consumed first, in
// aggregation order; monitors left over had no alert activity and are
// drained afterwards, in store order, with default stats. Stats for ids the
// primary fetch did not return are dropped.
func mergeFleet(monitors monitorSet, stats statsSet, now time.Time) []FleetEntry {
	rank := make(map[string]int, len(monitors.order))
	for i, id := range monitors.order {
		rank[id] = i
	}

	consumed := make(map[string]bool, len(stats.order))
	entries := make([]FleetEntry, 0, len(monitors.order))

	for _, id := range stats.order {
		m, ok := monitors.byID[id]
		if !ok {
			logger.Debug("Dropping alert stats of unknown monitor", zap.String("monitor_id", id))
			continue
		}
		consumed[id] = true
		entries = append(entries, newFleetEntry(m, stats.byID[id], rank[id], now))
	}

	for _, id := range monitors.order {
		if consumed[id] {
			continue
		}
		entries = append(entries, newFleetEntry(monitors.byID[id], defaultStats(id), rank[id], now))
	}

	return entries
}

func defaultStats(id string) AlertAggregateStats {
	latest := NoAlertPlaceholder
	return AlertAggregateStats{MonitorID: id, LatestAlert: &latest}
}

func newFleetEntry(m MonitorRecord, s AlertAggregateStats, rank int, now time.Time) FleetEntry {
	return FleetEntry{
		ID:                   m.ID,
		Version:              m.Version,
		Name:                 m.Name,
		Enabled:              m.Enabled,
		Monitor:              m.Monitor,
		Active:               s.Active,
		Acknowledged:         s.Acknowledged,
		Errors:               s.Errors,
		Ignored:              s.Ignored,
		LastNotificationTime: s.LastNotificationTime,
		LatestAlert:          s.LatestAlert,
		CurrentTime:          now,
		rank:                 rank,
	}
}
