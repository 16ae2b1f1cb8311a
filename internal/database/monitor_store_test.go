package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/hamersu9t/alerting-dashboards-plugin/internal/fleet"
)

func newTestStore(t *testing.T) *MonitorStore {
	t.Helper()
	db, err := Open(Config{Driver: "sqlite", DBName: filepath.Join(t.TempDir(), "alerting.db")})
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewMonitorStore(db, nil)
}

func createMonitor(t *testing.T, s *MonitorStore, name string, enabled bool) fleet.MonitorRecord {
	t.Helper()
	body := json.RawMessage(fmt.Sprintf(`{"type":"monitor","name":%q,"enabled":%t,"schedule":{"period":{"interval":1,"unit":"MINUTES"}}}`, name, enabled))
	m, err := s.CreateMonitor(context.Background(), body)
	if err != nil {
		t.Fatalf("CreateMonitor(%q) error: %v", name, err)
	}
	return m
}

func names(records []fleet.MonitorRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Name)
	}
	return out
}

func TestMonitorStoreCreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := createMonitor(t, s, "disk usage", false)
	if created.ID == "" || created.Version != 1 {
		t.Fatalf("created = %+v", created)
	}

	got, err := s.GetMonitor(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetMonitor() error: %v", err)
	}
	if got.Name != "disk usage" || got.Enabled || got.Version != 1 {
		t.Errorf("GetMonitor() = %+v", got)
	}

	var def map[string]interface{}
	if err := json.Unmarshal(got.Monitor, &def); err != nil {
		t.Fatalf("stored document is not JSON: %v", err)
	}
	if _, ok := def["schedule"]; !ok {
		t.Errorf("stored document lost fields: %s", got.Monitor)
	}

	if _, err := s.GetMonitor(ctx, "missing"); !errors.Is(err, fleet.ErrNotFound) {
		t.Errorf("GetMonitor(missing) error = %v, want ErrNotFound", err)
	}

	if _, err := s.CreateMonitor(ctx, json.RawMessage(`{"enabled":true}`)); !errors.Is(err, fleet.ErrInvalidMonitor) {
		t.Errorf("CreateMonitor(no name) error = %v, want ErrInvalidMonitor", err)
	}
}

func TestMonitorStoreSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createMonitor(t, s, "This is a long monitor name", true)
	createMonitor(t, s, "cpu", true)
	createMonitor(t, s, "Another LONG Monitor", false)
	createMonitor(t, s, "100%_done", true)

	filter := func(search string, state fleet.StateFilter) fleet.Filter {
		f, err := fleet.BuildFilter(search, state)
		if err != nil {
			t.Fatalf("BuildFilter() error: %v", err)
		}
		return f
	}
	asc := &fleet.MonitorSort{Field: fleet.SortName, Direction: fleet.Asc}

	tests := []struct {
		name      string
		query     fleet.MonitorQuery
		wantNames []string
		wantTotal int64
	}{
		{
			name:      "all by name",
			query:     fleet.MonitorQuery{Filter: filter("", fleet.StateAll), Sort: asc},
			wantNames: []string{"100%_done", "Another LONG Monitor", "This is a long monitor name", "cpu"},
			wantTotal: 4,
		},
		{
			name:      "tokenized search is case insensitive",
			query:     fleet.MonitorQuery{Filter: filter("long monit", fleet.StateAll), Sort: asc},
			wantNames: []string{"Another LONG Monitor", "This is a long monitor name"},
			wantTotal: 2,
		},
		{
			name:      "search and state",
			query:     fleet.MonitorQuery{Filter: filter("long monit", fleet.StateEnabled), Sort: asc},
			wantNames: []string{"This is a long monitor name"},
			wantTotal: 1,
		},
		{
			name:      "like wildcards are literal",
			query:     fleet.MonitorQuery{Filter: filter("%_", fleet.StateAll), Sort: asc},
			wantNames: []string{"100%_done"},
			wantTotal: 1,
		},
		{
			name:      "page",
			query:     fleet.MonitorQuery{Filter: filter("", fleet.StateAll), Sort: &fleet.MonitorSort{Field: fleet.SortName, Direction: fleet.Desc}, From: 1, Size: 2},
			wantNames: []string{"This is a long monitor name", "Another LONG Monitor"},
			wantTotal: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := s.SearchMonitors(ctx, tt.query)
			if err != nil {
				t.Fatalf("SearchMonitors() error: %v", err)
			}
			if hits.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", hits.Total, tt.wantTotal)
			}
			got := names(hits.Monitors)
			if fmt.Sprint(got) != fmt.Sprint(tt.wantNames) {
				t.Errorf("names = %q, want %q", got, tt.wantNames)
			}
		})
	}
}

func TestMonitorStoreUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	m := createMonitor(t, s, "disk", true)

	body := json.RawMessage(`{"type":"monitor","name":"disk v2","enabled":false}`)
	updated, err := s.UpdateMonitor(ctx, m.ID, 1, body)
	if err != nil {
		t.Fatalf("UpdateMonitor() error: %v", err)
	}
	if updated.Version != 2 || updated.Name != "disk v2" || updated.Enabled {
		t.Errorf("updated = %+v", updated)
	}

	if _, err := s.UpdateMonitor(ctx, m.ID, 1, body); !errors.Is(err, fleet.ErrVersionConflict) {
		t.Errorf("stale UpdateMonitor() error = %v, want ErrVersionConflict", err)
	}
	if _, err := s.UpdateMonitor(ctx, "missing", 1, body); !errors.Is(err, fleet.ErrNotFound) {
		t.Errorf("UpdateMonitor(missing) error = %v, want ErrNotFound", err)
	}

	got, err := s.GetMonitor(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMonitor() error: %v", err)
	}
	if got.Version != 2 {
		t.Errorf("stored version = %d, want 2", got.Version)
	}
}

func TestMonitorStoreDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	m := createMonitor(t, s, "disk", true)

	if err := s.DeleteMonitor(ctx, m.ID); err != nil {
		t.Fatalf("DeleteMonitor() error: %v", err)
	}
	if err := s.DeleteMonitor(ctx, m.ID); !errors.Is(err, fleet.ErrNotFound) {
		t.Errorf("second DeleteMonitor() error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetMonitor(ctx, m.ID); !errors.Is(err, fleet.ErrNotFound) {
		t.Errorf("GetMonitor() after delete error = %v, want ErrNotFound", err)
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "oracle"}); err == nil {
		t.Fatal("Open(oracle) succeeded, want error")
	}
}
