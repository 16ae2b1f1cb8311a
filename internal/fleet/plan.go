package fleet

import "fmt"

// SortKey names a field the fleet can be ordered by.
type SortKey string

const (
	SortName                 SortKey = "name"
	SortActive               SortKey = "active"
	SortAcknowledged         SortKey = "acknowledged"
	SortErrors               SortKey = "errors"
	SortIgnored              SortKey = "ignored"
	SortLastNotificationTime SortKey = "lastNotificationTime"
)

// Namespace tells which store owns a sort key.
type Namespace int

const (
	// PrimaryNamespace keys are stored on the monitor itself.
	PrimaryNamespace Namespace = iota
	// AggregateNamespace keys exist only as alert aggregates.
	AggregateNamespace
)

var sortNamespaces = map[SortKey]Namespace{
	SortName:                 PrimaryNamespace,
	SortActive:               AggregateNamespace,
	SortAcknowledged:         AggregateNamespace,
	SortErrors:               AggregateNamespace,
	SortIgnored:              AggregateNamespace,
	SortLastNotificationTime: AggregateNamespace,
}

// Namespace returns the namespace k belongs to.
func (k SortKey) Namespace() (Namespace, error) {
	ns, ok := sortNamespaces[k]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSortKey, string(k))
	}
	return ns, nil
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Bound tells which step limits the result to the requested page.
type Bound int

const (
	// PrimaryBounded plans let the primary store sort and paginate.
	PrimaryBounded Bound = iota
	// AggregateBounded plans materialize every matching monitor and
	// paginate in memory after the stats are joined.
	AggregateBounded
)

func (b Bound) String() string {
	if b == AggregateBounded {
		return "aggregate"
	}
	return "primary"
}

// SortPlan is decided once per request and threaded through every step.
type SortPlan struct {
	Key       SortKey
	Direction Direction
	Bound     Bound
	From      int
	Size      int
}

// NewSortPlan validates the sort and page of a request. A zero size means
// "up to the safety cap"; sizes above the cap are clamped to it.
func NewSortPlan(field, direction string, from, size int, limits Limits) (SortPlan, error) {
	key := SortKey(field)
	if key == "" {
		key = SortName
	}
	ns, err := key.Namespace()
	if err != nil {
		return SortPlan{}, err
	}

	dir := Direction(direction)
	switch dir {
	case "":
		dir = Asc
	case Asc, Desc:
	default:
		return SortPlan{}, fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
	}

	if from < 0 || size < 0 {
		return SortPlan{}, fmt.Errorf("%w: from=%d size=%d", ErrInvalidPage, from, size)
	}
	if size == 0 || size > limits.MaxMonitors {
		size = limits.MaxMonitors
	}

	plan := SortPlan{
		Key:       key,
		Direction: dir,
		Bound:     PrimaryBounded,
		From:      from,
		Size:      size,
	}
	if ns == AggregateNamespace {
		plan.Bound = AggregateBounded
	}
	return plan, nil
}

// monitorQuery builds the primary store query for the plan.
func (p SortPlan) monitorQuery(filter Filter, limits Limits) MonitorQuery {
	if p.Bound == AggregateBounded {
		return MonitorQuery{Filter: filter, Size: limits.MaxMonitors}
	}
	return MonitorQuery{
		Filter: filter,
		Sort:   &MonitorSort{Field: p.Key, Direction: p.Direction},
		From:   p.From,
		Size:   p.Size,
	}
}

// alertStatsQuery builds the alert store aggregation for the plan over ids.
//
// For aggregate-bounded plans the ordering is pushed into the aggregation.
// The bucket count is always the id count (itself bounded by MaxMonitors):
// a bucket cut off by a from+size limit would surface as a monitor with no
// alert activity.
func (p SortPlan) alertStatsQuery(ids []string) AlertStatsQuery {
	q := AlertStatsQuery{MonitorIDs: ids, Size: len(ids)}
	if p.Bound == AggregateBounded {
		q.Order = &AggregateOrder{Field: p.Key, Direction: p.Direction}
	}
	return q
}
