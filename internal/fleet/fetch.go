package fleet

import "context"

// monitorSet is an insertion-ordered mapping from monitor id to record.
type monitorSet struct {
	order []string
	byID  map[string]MonitorRecord
}

func newMonitorSet(records []MonitorRecord) monitorSet {
	s := monitorSet{
		order: make([]string, 0, len(records)),
		byID:  make(map[string]MonitorRecord, len(records)),
	}
	for _, r := range records {
		if _, dup := s.byID[r.ID]; dup {
			continue
		}
		s.order = append(s.order, r.ID)
		s.byID[r.ID] = r
	}
	return s
}

func (s monitorSet) ids() []string {
	return s.order
}

// fetchMonitors runs the primary store query of the plan. Any store error is
// returned as a *FetchError and no records are returned with it.
func fetchMonitors(ctx context.Context, store MonitorStore, filter Filter, plan SortPlan, limits Limits) (monitorSet, int64, error) {
	hits, err := store.SearchMonitors(ctx, plan.monitorQuery(filter, limits))
	if err != nil {
		return monitorSet{}, 0, &FetchError{Err: err}
	}
	return newMonitorSet(hits.Monitors), hits.Total, nil
}
