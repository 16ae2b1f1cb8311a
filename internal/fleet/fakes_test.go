package fleet

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/hamersu9t/alerting-dashboards-plugin/internal/logger"

	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Replace(zap.NewNop())
	os.Exit(m.Run())
}

// matches evaluates the filter against a monitor in memory. Name matching is
// case-insensitive.
func (f Filter) matches(name string, enabled bool) bool {
	if f.Enabled != nil && *f.Enabled != enabled {
		return false
	}
	lower := strings.ToLower(name)
	for _, term := range f.Terms {
		if !strings.Contains(lower, strings.ToLower(term)) {
			return false
		}
	}
	return true
}

// fakeMonitorStore keeps monitors in insertion order and evaluates filters
// in memory.
type fakeMonitorStore struct {
	records []MonitorRecord
	err     error
	queries []MonitorQuery
}

func newFakeMonitorStore(records ...MonitorRecord) *fakeMonitorStore {
	return &fakeMonitorStore{records: records}
}

func (s *fakeMonitorStore) SearchMonitors(_ context.Context, q MonitorQuery) (MonitorHits, error) {
	s.queries = append(s.queries, q)
	if s.err != nil {
		return MonitorHits{}, s.err
	}

	var matched []MonitorRecord
	for _, r := range s.records {
		if q.Filter.matches(r.Name, r.Enabled) {
			matched = append(matched, r)
		}
	}
	if q.Sort != nil {
		sort.SliceStable(matched, func(i, j int) bool {
			if q.Sort.Direction == Desc {
				return matched[i].Name > matched[j].Name
			}
			return matched[i].Name < matched[j].Name
		})
	}

	total := int64(len(matched))
	if q.From < len(matched) {
		matched = matched[q.From:]
	} else {
		matched = nil
	}
	if q.Size > 0 && q.Size < len(matched) {
		matched = matched[:q.Size]
	}
	return MonitorHits{Total: total, Monitors: matched}, nil
}

func (s *fakeMonitorStore) GetMonitor(_ context.Context, id string) (MonitorRecord, error) {
	for _, r := range s.records {
		if r.ID == id {
			return r, nil
		}
	}
	return MonitorRecord{}, ErrNotFound
}

func (s *fakeMonitorStore) CreateMonitor(_ context.Context, body json.RawMessage) (MonitorRecord, error) {
	def, err := ParseDefinition(body)
	if err != nil {
		return MonitorRecord{}, err
	}
	r := MonitorRecord{
		ID:      fmt.Sprintf("m%d", len(s.records)+1),
		Version: 1,
		Name:    def.Name,
		Enabled: def.Enabled,
		Monitor: body,
	}
	s.records = append(s.records, r)
	return r, nil
}

func (s *fakeMonitorStore) UpdateMonitor(_ context.Context, id string, version int64, body json.RawMessage) (MonitorRecord, error) {
	for i, r := range s.records {
		if r.ID != id {
			continue
		}
		if r.Version != version {
			return MonitorRecord{}, ErrVersionConflict
		}
		r.Version++
		r.Monitor = body
		s.records[i] = r
		return r, nil
	}
	return MonitorRecord{}, ErrNotFound
}

func (s *fakeMonitorStore) DeleteMonitor(_ context.Context, id string) error {
	for i, r := range s.records {
		if r.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// fakeAlertStore returns the stats of the requested monitors that have any,
// plus any stray stats, ordered the way the query asks.
type fakeAlertStore struct {
	stats   map[string]AlertAggregateStats
	stray   []AlertAggregateStats
	summary AlertSummary
	err     error
	queries []AlertStatsQuery
}

func (s *fakeAlertStore) AggregateAlertStats(_ context.Context, q AlertStatsQuery) ([]AlertAggregateStats, error) {
	s.queries = append(s.queries, q)
	if s.err != nil {
		return nil, s.err
	}

	var out []AlertAggregateStats
	for _, id := range q.MonitorIDs {
		if st, ok := s.stats[id]; ok {
			out = append(out, st)
		}
	}
	out = append(out, s.stray...)

	if q.Order != nil {
		cmp := compareBy(q.Order.Field)
		sort.SliceStable(out, func(i, j int) bool {
			c := cmp(statsEntry(out[i]), statsEntry(out[j]))
			if q.Order.Direction == Desc {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Size > 0 && q.Size < len(out) {
		out = out[:q.Size]
	}
	return out, nil
}

func (s *fakeAlertStore) MonitorAlertSummary(_ context.Context, _ string) (AlertSummary, error) {
	if s.err != nil {
		return AlertSummary{}, s.err
	}
	return s.summary, nil
}

func statsEntry(s AlertAggregateStats) FleetEntry {
	return newFleetEntry(MonitorRecord{ID: s.MonitorID}, s, 0, time.Time{})
}

type fakeAlertingAPI struct {
	dryrun bool
	ack    AckResult
	err    error
}

func (a *fakeAlertingAPI) ExecuteMonitor(_ context.Context, _ json.RawMessage, dryrun bool) (map[string]interface{}, error) {
	a.dryrun = dryrun
	if a.err != nil {
		return nil, a.err
	}
	return map[string]interface{}{"monitor_name": "m", "dryrun": dryrun}, nil
}

func (a *fakeAlertingAPI) AcknowledgeAlerts(_ context.Context, _ string, _ json.RawMessage) (AckResult, error) {
	if a.err != nil {
		return AckResult{}, a.err
	}
	return a.ack, nil
}

func monitor(id, name string, enabled bool) MonitorRecord {
	return MonitorRecord{
		ID:      id,
		Version: 1,
		Name:    name,
		Enabled: enabled,
		Monitor: json.RawMessage(fmt.Sprintf(`{"type":"monitor","name":%q,"enabled":%t}`, name, enabled)),
	}
}

func strPtr(s string) *string { return &s }

func entryIDs(entries []FleetEntry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}
