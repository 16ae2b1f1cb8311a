package fleet

import "context"

// statsSet holds aggregated stats in the order the alert store returned them.
type statsSet struct {
	order []string
	byID  map[string]AlertAggregateStats
}

// aggregateStats computes the alert statistics of the fetched monitors.
// An empty id set skips the store call.
func aggregateStats(ctx context.Context, alerts AlertStore, ids []string, plan SortPlan) (statsSet, error) {
	if len(ids) == 0 {
		return statsSet{byID: map[string]AlertAggregateStats{}}, nil
	}

	buckets, err := alerts.AggregateAlertStats(ctx, plan.alertStatsQuery(ids))
	if err != nil {
		return statsSet{}, &AggregateError{Err: err}
	}

	s := statsSet{
		order: make([]string, 0, len(buckets)),
		byID:  make(map[string]AlertAggregateStats, len(buckets)),
	}
	for _, b := range buckets {
		if _, dup := s.byID[b.MonitorID]; dup {
			continue
		}
		s.order = append(s.order, b.MonitorID)
		s.byID[b.MonitorID] = b
	}
	return s, nil
}
