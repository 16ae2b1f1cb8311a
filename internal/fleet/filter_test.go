package fleet

import (
	"errors"
	"reflect"
	"testing"
)

func TestBuildFilter(t *testing.T) {
	enabled, disabled := true, false

	tests := []struct {
		name        string
		search      string
		state       StateFilter
		wantTerms   []string
		wantEnabled *bool
		wantErr     error
	}{
		{name: "empty", search: "", state: StateAll},
		{name: "blank search", search: "   ", state: "", wantTerms: nil},
		{name: "two terms", search: "long monit", state: StateAll, wantTerms: []string{"long", "monit"}},
		{name: "extra spaces", search: "  cpu \t disk ", state: StateAll, wantTerms: []string{"cpu", "disk"}},
		{name: "enabled", state: StateEnabled, wantEnabled: &enabled},
		{name: "disabled", state: StateDisabled, wantEnabled: &disabled},
		{name: "unknown state", state: "paused", wantErr: ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := BuildFilter(tt.search, tt.state)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("BuildFilter() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildFilter() unexpected error: %v", err)
			}
			if len(f.Terms) != len(tt.wantTerms) || (len(f.Terms) > 0 && !reflect.DeepEqual(f.Terms, tt.wantTerms)) {
				t.Errorf("Terms = %q, want %q", f.Terms, tt.wantTerms)
			}
			if f.Type != MonitorType {
				t.Errorf("Type = %q, want %q", f.Type, MonitorType)
			}
			switch {
			case tt.wantEnabled == nil && f.Enabled != nil:
				t.Errorf("Enabled = %v, want nil", *f.Enabled)
			case tt.wantEnabled != nil && (f.Enabled == nil || *f.Enabled != *tt.wantEnabled):
				t.Errorf("Enabled = %v, want %v", f.Enabled, *tt.wantEnabled)
			}
		})
	}
}

func TestFilterQueryString(t *testing.T) {
	tests := []struct {
		search string
		want   string
	}{
		{search: "", want: ""},
		{search: "cpu", want: "*cpu*"},
		{search: "long monit", want: "*long* *monit*"},
	}

	for _, tt := range tests {
		f, err := BuildFilter(tt.search, StateAll)
		if err != nil {
			t.Fatalf("BuildFilter(%q) error: %v", tt.search, err)
		}
		if got := f.QueryString(); got != tt.want {
			t.Errorf("QueryString(%q) = %q, want %q", tt.search, got, tt.want)
		}
		if f.MatchAll() != (tt.search == "") {
			t.Errorf("MatchAll(%q) = %v", tt.search, f.MatchAll())
		}
	}
}

func TestFilterMatches(t *testing.T) {
	all, _ := BuildFilter("long monit", StateAll)
	enabledOnly, _ := BuildFilter("", StateEnabled)

	tests := []struct {
		name    string
		filter  Filter
		monitor string
		enabled bool
		want    bool
	}{
		{name: "all terms present", filter: all, monitor: "This is a long monitor name", enabled: true, want: true},
		{name: "case insensitive", filter: all, monitor: "LONG MONITOR", enabled: false, want: true},
		{name: "one term missing", filter: all, monitor: "a short monitor", enabled: true, want: false},
		{name: "state match", filter: enabledOnly, monitor: "x", enabled: true, want: true},
		{name: "state mismatch", filter: enabledOnly, monitor: "x", enabled: false, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.matches(tt.monitor, tt.enabled); got != tt.want {
				t.Errorf("matches(%q, %v) = %v, want %v", tt.monitor, tt.enabled, got, tt.want)
			}
		})
	}
}

func TestParseDefinition(t *testing.T) {
	def, err := ParseDefinition([]byte(`{"name":"disk","enabled":true,"inputs":[]}`))
	if err != nil {
		t.Fatalf("ParseDefinition() error: %v", err)
	}
	if def.Name != "disk" || !def.Enabled || def.Type != MonitorType {
		t.Errorf("ParseDefinition() = %+v", def)
	}

	for _, body := range []string{`{"enabled":true}`, `{"name":"  "}`, `not json`} {
		if _, err := ParseDefinition([]byte(body)); !errors.Is(err, ErrInvalidMonitor) {
			t.Errorf("ParseDefinition(%s) error = %v, want ErrInvalidMonitor", body, err)
		}
	}
}
