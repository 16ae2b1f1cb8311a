package fleet

import (
	"context"
	"encoding/json"
	"time"
)

const (
	// MaxMonitors is the default safety cap on how many monitors a single
	// listing request may materialize. Primary store owners must keep the
	// monitor count below it.
	MaxMonitors = 1000

	// MonitorType restricts primary store queries to monitor documents.
	MonitorType = "monitor"

	// NoAlertPlaceholder is reported as the latest alert of a monitor that
	// never raised one.
	NoAlertPlaceholder = "--"
)

// Limits holds the tunable policy of the listing pipeline.
type Limits struct {
	MaxMonitors int
}

// DefaultLimits returns the limits used when nothing is configured.
func DefaultLimits() Limits {
	return Limits{MaxMonitors: MaxMonitors}
}

// MonitorRecord is a monitor definition as read from the primary store.
type MonitorRecord struct {
	ID      string          `json:"id"`
	Version int64           `json:"version"`
	Name    string          `json:"name"`
	Enabled bool            `json:"enabled"`
	Monitor json.RawMessage `json:"monitor"`
}

// AlertAggregateStats are the alert statistics of one monitor, derived by
// aggregating over its alert events.
type AlertAggregateStats struct {
	MonitorID            string
	Active               int64
	Acknowledged         int64
	Errors               int64
	Ignored              int64
	LastNotificationTime *time.Time
	LatestAlert          *string
}

// FleetEntry joins a monitor with its alert statistics for one response.
type FleetEntry struct {
	ID                   string          `json:"id"`
	Version              int64           `json:"version"`
	Name                 string          `json:"name"`
	Enabled              bool            `json:"enabled"`
	Monitor              json.RawMessage `json:"monitor"`
	Active               int64           `json:"active"`
	Acknowledged         int64           `json:"acknowledged"`
	Errors               int64           `json:"errors"`
	Ignored              int64           `json:"ignored"`
	LastNotificationTime *time.Time      `json:"lastNotificationTime"`
	LatestAlert          *string         `json:"latestAlert"`
	CurrentTime          time.Time       `json:"currentTime"`

	// rank is the position of the monitor in the primary fetch.
	rank int
}

// ListRequest is a listing request as received from a caller.
type ListRequest struct {
	From          int
	Size          int
	Search        string
	SortField     string
	SortDirection string
	State         string
}

// ListResult is one sorted page of the fleet.
type ListResult struct {
	Monitors      []FleetEntry `json:"monitors"`
	TotalMonitors int64        `json:"totalMonitors"`
}

// MonitorSort orders a primary store query.
type MonitorSort struct {
	Field     SortKey
	Direction Direction
}

// MonitorQuery is the query issued against the primary store.
type MonitorQuery struct {
	Filter Filter
	// Sort is nil when the store should return its natural order.
	Sort *MonitorSort
	From int
	Size int
}

// MonitorHits is a primary store query result.
type MonitorHits struct {
	Total    int64
	Monitors []MonitorRecord
}

// AggregateOrder pushes an aggregate sort into the alert store.
type AggregateOrder struct {
	Field     SortKey
	Direction Direction
}

// AlertStatsQuery is the aggregation issued against the alert store.
type AlertStatsQuery struct {
	MonitorIDs []string
	Order      *AggregateOrder
	// Size bounds the number of monitor buckets returned.
	Size int
}

// AlertSummary is the alert activity reported for a single monitor.
type AlertSummary struct {
	ActiveCount int64
	DayCount    int64
}

// AckResult is the outcome of an acknowledge call.
type AckResult struct {
	Success []string               `json:"success"`
	Failed  []map[string]interface{} `json:"failed"`
}

// MonitorStore is the primary store holding monitor definitions.
type MonitorStore interface {
	SearchMonitors(ctx context.Context, query MonitorQuery) (MonitorHits, error)
	GetMonitor(ctx context.Context, id string) (MonitorRecord, error)
	CreateMonitor(ctx context.Context, body json.RawMessage) (MonitorRecord, error)
	// UpdateMonitor replaces the definition if the stored version equals
	// version, returning ErrVersionConflict otherwise.
	UpdateMonitor(ctx context.Context, id string, version int64, body json.RawMessage) (MonitorRecord, error)
	DeleteMonitor(ctx context.Context, id string) error
}

// AlertStore is the store holding alert events.
type AlertStore interface {
	AggregateAlertStats(ctx context.Context, query AlertStatsQuery) ([]AlertAggregateStats, error)
	MonitorAlertSummary(ctx context.Context, monitorID string) (AlertSummary, error)
}

// AlertingAPI runs and acknowledges monitors on the external alerting engine.
type AlertingAPI interface {
	ExecuteMonitor(ctx context.Context, body json.RawMessage, dryrun bool) (map[string]interface{}, error)
	AcknowledgeAlerts(ctx context.Context, monitorID string, body json.RawMessage) (AckResult, error)
}
