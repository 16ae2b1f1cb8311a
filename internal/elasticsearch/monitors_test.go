package elasticsearch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/hamersu9t/alerting-dashboards-plugin/internal/config"
	"github.com/hamersu9t/alerting-dashboards-plugin/internal/fleet"
)

func TestMonitorStoreSearch(t *testing.T) {
	fc, srv := newFakeCluster(t)
	fc.handle("POST /monitors/_search", http.StatusOK, `{
	  "hits": {
	    "total": {"value": 12, "relation": "eq"},
	    "hits": [
	      {"_id": "m1", "_version": 3, "_source": {"monitor": {"type": "monitor", "name": "This is a long monitor name", "enabled": true}}},
	      {"_id": "bad", "_version": 1, "_source": {"monitor": {"type": "monitor"}}},
	      {"_id": "m2", "_version": 1, "_source": {"monitor": {"type": "monitor", "name": "long monitoring", "enabled": false}}}
	    ]
	  }
	}`)
	c, _ := newTestClient(t, srv, config.BreakerConfig{})
	store := NewMonitorStore(c)

	filter, _ := fleet.BuildFilter("long monit", fleet.StateEnabled)
	hits, err := store.SearchMonitors(context.Background(), fleet.MonitorQuery{
		Filter: filter,
		Sort:   &fleet.MonitorSort{Field: fleet.SortName, Direction: fleet.Desc},
		From:   10,
		Size:   2,
	})
	if err != nil {
		t.Fatalf("SearchMonitors() error: %v", err)
	}
	if hits.Total != 12 {
		t.Errorf("Total = %d, want 12", hits.Total)
	}
	if len(hits.Monitors) != 3 || hits.Monitors[0].ID != "m1" || hits.Monitors[1].ID != "bad" || hits.Monitors[2].ID != "m2" {
		t.Fatalf("monitors = %+v, want m1, bad, m2", hits.Monitors)
	}
	// a document without a name is still listed, with its raw body
	if bad := hits.Monitors[1]; bad.Name != "" || string(bad.Monitor) != `{"type": "monitor"}` {
		t.Errorf("nameless monitor = %+v", bad)
	}
	if m1 := hits.Monitors[0]; m1.Version != 3 || !m1.Enabled || m1.Name != "This is a long monitor name" {
		t.Errorf("m1 = %+v", m1)
	}

	body := fc.recorded()[0].Body
	if body["version"] != true || body["from"] != float64(10) || body["size"] != float64(2) {
		t.Errorf("body = %v", body)
	}
	qs := lookup(body, "query", "bool", "must", "query_string")
	if lookup(qs, "query") != "*long* *monit*" || lookup(qs, "default_operator") != "AND" || lookup(qs, "default_field") != "monitor.name" {
		t.Errorf("query_string = %v", qs)
	}
	filters, _ := lookup(body, "query", "bool", "filter").([]interface{})
	if len(filters) != 2 || lookup(filters[1], "term", "monitor.enabled") != true {
		t.Errorf("filters = %v", filters)
	}
	sort, _ := body["sort"].([]interface{})
	if len(sort) != 1 || lookup(sort[0], "monitor.name.keyword") != "desc" {
		t.Errorf("sort = %v", body["sort"])
	}
}

func TestMonitorSearchBodyMatchAll(t *testing.T) {
	body := buildMonitorSearchBody(fleet.MonitorQuery{Filter: fleet.Filter{Type: fleet.MonitorType}})
	if lookup(body, "query", "bool", "must", "match_all") == nil {
		t.Errorf("must = %v, want match_all", lookup(body, "query", "bool", "must"))
	}
	if _, ok := body["sort"]; ok {
		t.Errorf("unsorted query carries a sort")
	}
	if _, ok := body["size"]; ok {
		t.Errorf("unbounded query carries a size")
	}
}

func TestMonitorStoreGet(t *testing.T) {
	fc, srv := newFakeCluster(t)
	fc.handle("GET /monitors/_doc/m1", http.StatusOK,
		`{"_id":"m1","_version":2,"_seq_no":7,"_primary_term":1,"found":true,"_source":{"monitor":{"name":"disk","enabled":true}}}`)
	fc.handle("GET /monitors/_doc/gone", http.StatusNotFound, `{"_id":"gone","found":false}`)
	c, _ := newTestClient(t, srv, config.BreakerConfig{})
	store := NewMonitorStore(c)

	m, err := store.GetMonitor(context.Background(), "m1")
	if err != nil {
		t.Fatalf("GetMonitor() error: %v", err)
	}
	if m.Version != 2 || m.Name != "disk" || !m.Enabled {
		t.Errorf("GetMonitor() = %+v", m)
	}

	if _, err := store.GetMonitor(context.Background(), "gone"); !errors.Is(err, fleet.ErrNotFound) {
		t.Errorf("GetMonitor(gone) error = %v, want ErrNotFound", err)
	}
}

func TestMonitorStoreUpdate(t *testing.T) {
	fc, srv := newFakeCluster(t)
	fc.handle("GET /monitors/_doc/m1", http.StatusOK,
		`{"_id":"m1","_version":4,"_seq_no":7,"_primary_term":1,"found":true,"_source":{"monitor":{"name":"disk","enabled":true}}}`)
	fc.handle("PUT /monitors/_doc/m1", http.StatusOK, `{"_id":"m1","_version":5,"result":"updated"}`)
	c, _ := newTestClient(t, srv, config.BreakerConfig{})
	store := NewMonitorStore(c)
	body := json.RawMessage(`{"name":"disk v2","enabled":false}`)

	if _, err := store.UpdateMonitor(context.Background(), "m1", 3, body); !errors.Is(err, fleet.ErrVersionConflict) {
		t.Fatalf("UpdateMonitor(version=3) error = %v, want ErrVersionConflict", err)
	}
	for _, req := range fc.recorded() {
		if req.Method == http.MethodPut {
			t.Fatalf("stale update reached the index")
		}
	}

	m, err := store.UpdateMonitor(context.Background(), "m1", 4, body)
	if err != nil {
		t.Fatalf("UpdateMonitor(version=4) error: %v", err)
	}
	if m.Version != 5 || m.Name != "disk v2" || m.Enabled {
		t.Errorf("UpdateMonitor() = %+v", m)
	}

	reqs := fc.recorded()
	put := reqs[len(reqs)-1]
	if put.Query.Get("if_seq_no") != "7" || put.Query.Get("if_primary_term") != "1" {
		t.Errorf("conditional params = %v", put.Query)
	}
	if lookup(put.Body, "monitor", "name") != "disk v2" {
		t.Errorf("indexed document = %v", put.Body)
	}
}

func TestMonitorStoreUpdateConcurrentWrite(t *testing.T) {
	fc, srv := newFakeCluster(t)
	fc.handle("GET /monitors/_doc/m1", http.StatusOK,
		`{"_id":"m1","_version":4,"_seq_no":7,"_primary_term":1,"found":true,"_source":{"monitor":{"name":"disk"}}}`)
	fc.handle("PUT /monitors/_doc/m1", http.StatusConflict, `{"error":{"type":"version_conflict_engine_exception"}}`)
	c, _ := newTestClient(t, srv, config.BreakerConfig{})

	_, err := NewMonitorStore(c).UpdateMonitor(context.Background(), "m1", 4, json.RawMessage(`{"name":"disk"}`))
	if !errors.Is(err, fleet.ErrVersionConflict) {
		t.Fatalf("error = %v, want ErrVersionConflict", err)
	}
}

func TestMonitorStoreCreateAndDelete(t *testing.T) {
	fc, srv := newFakeCluster(t)
	// document ids are generated client side
	fc.fallback = func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || !strings.HasPrefix(r.URL.Path, "/monitors/_doc/") {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":"no route"}`)
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/monitors/_doc/")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"_id":"`+id+`","_version":1,"result":"created"}`)
	}
	fc.handle("DELETE /monitors/_doc/m1", http.StatusOK, `{"_id":"m1","result":"deleted"}`)
	fc.handle("DELETE /monitors/_doc/gone", http.StatusNotFound, `{"_id":"gone","result":"not_found"}`)
	c, _ := newTestClient(t, srv, config.BreakerConfig{})
	store := NewMonitorStore(c)
	ctx := context.Background()

	if _, err := store.CreateMonitor(ctx, json.RawMessage(`{"enabled":true}`)); !errors.Is(err, fleet.ErrInvalidMonitor) {
		t.Fatalf("CreateMonitor(no name) error = %v, want ErrInvalidMonitor", err)
	}
	if n := len(fc.recorded()); n != 0 {
		t.Fatalf("invalid monitor sent %d requests", n)
	}

	m, err := store.CreateMonitor(ctx, json.RawMessage(`{"type":"monitor","name":"disk","enabled":true}`))
	if err != nil {
		t.Fatalf("CreateMonitor() error: %v", err)
	}
	if m.ID == "" || m.Version != 1 || m.Name != "disk" || !m.Enabled {
		t.Errorf("CreateMonitor() = %+v", m)
	}
	create := fc.recorded()[0]
	if create.Query.Get("op_type") != "create" || create.Query.Get("refresh") != "wait_for" {
		t.Errorf("create params = %v", create.Query)
	}
	if lookup(create.Body, "monitor", "name") != "disk" {
		t.Errorf("indexed document = %v", create.Body)
	}

	if err := store.DeleteMonitor(ctx, "m1"); err != nil {
		t.Errorf("DeleteMonitor(m1) error: %v", err)
	}
	if err := store.DeleteMonitor(ctx, "gone"); !errors.Is(err, fleet.ErrNotFound) {
		t.Errorf("DeleteMonitor(gone) error = %v, want ErrNotFound", err)
	}
}
