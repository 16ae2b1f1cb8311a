package fleet

import (
	"sort"
	"time"
)

// sortAndPage orders entries by the plan's key and, for aggregate-bounded
// plans, cuts out the requested page. The input slice is sorted in place.
func sortAndPage(entries []FleetEntry, plan SortPlan) []FleetEntry {
	cmp := compareBy(plan.Key)
	sort.SliceStable(entries, func(i, j int) bool {
		c := cmp(entries[i], entries[j])
		if c == 0 {
			return entries[i].rank < entries[j].rank
		}
		if plan.Direction == Desc {
			return c > 0
		}
		return c < 0
	})

	if plan.Bound == PrimaryBounded {
		return entries
	}

	from := plan.From
	if from > len(entries) {
		from = len(entries)
	}
	to := from + plan.Size
	if to > len(entries) {
		to = len(entries)
	}
	return entries[from:to]
}

func compareBy(key SortKey) func(a, b FleetEntry) int {
	switch key {
	case SortActive:
		return func(a, b FleetEntry) int { return compareInt(a.Active, b.Active) }
	case SortAcknowledged:
		return func(a, b FleetEntry) int { return compareInt(a.Acknowledged, b.Acknowledged) }
	case SortErrors:
		return func(a, b FleetEntry) int { return compareInt(a.Errors, b.Errors) }
	case SortIgnored:
		return func(a, b FleetEntry) int { return compareInt(a.Ignored, b.Ignored) }
	case SortLastNotificationTime:
		return func(a, b FleetEntry) int { return compareTime(a.LastNotificationTime, b.LastNotificationTime) }
	default:
		return func(a, b FleetEntry) int { return compareString(a.Name, b.Name) }
	}
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// compareTime orders nil before any time.
func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case a.Before(*b):
		return -1
	case a.After(*b):
		return 1
	}
	return 0
}
