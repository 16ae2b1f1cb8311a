package fleet

import (
	"fmt"
	"strings"
)

// StateFilter selects monitors by their enabled flag.
type StateFilter string

const (
	StateAll      StateFilter = "all"
	StateEnabled  StateFilter = "enabled"
	StateDisabled StateFilter = "disabled"
)

// Filter is the store-neutral predicate of a monitor listing.
//
// Each term must appear somewhere in the monitor name (a leading and
// trailing wildcard match), and all terms must match. This is an expensive
// match which is only acceptable because the number of monitors is bounded
// by MaxMonitors.
type Filter struct {
	Terms   []string
	Enabled *bool
	Type    string
}

// BuildFilter turns free search text and a state filter into a Filter.
// An empty state is treated as StateAll.
func BuildFilter(search string, state StateFilter) (Filter, error) {
	f := Filter{
		Terms: strings.Fields(search),
		Type:  MonitorType,
	}

	switch state {
	case StateAll, "":
	case StateEnabled, StateDisabled:
		enabled := state == StateEnabled
		f.Enabled = &enabled
	default:
		return Filter{}, fmt.Errorf("%w: %q", ErrInvalidState, state)
	}

	return f, nil
}

// MatchAll reports whether the filter places no constraint on the name.
func (f Filter) MatchAll() bool {
	return len(f.Terms) == 0
}

// QueryString renders the terms as a wildcard query string, e.g.
// "long monit" becomes "*long* *monit*".
func (f Filter) QueryString() string {
	if f.MatchAll() {
		return ""
	}
	return "*" + strings.Join(f.Terms, "* *") + "*"
}
