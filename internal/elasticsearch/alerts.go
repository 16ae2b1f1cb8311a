package elasticsearch

import (
	"context"
	"fmt"
	"time"

	"github.com/hamersu9t/alerting-dashboards-plugin/internal/fleet"
	"github.com/hamersu9t/alerting-dashboards-plugin/internal/models"
)

const monitorBucketsAgg = "uniq_monitor_ids"

// aggregateSortFields maps aggregate sort keys to the sub-aggregation the
// terms buckets are ordered by.
var aggregateSortFields = map[fleet.SortKey]string{
	fleet.SortActive:               "active",
	fleet.SortAcknowledged:         "acknowledged",
	fleet.SortErrors:               "errors",
	fleet.SortIgnored:              "ignored",
	fleet.SortLastNotificationTime: "last_notification_time",
}

func stateFilter(state string) map[string]interface{} {
	return map[string]interface{}{
		"filter": map[string]interface{}{
			"term": map[string]interface{}{"state": state},
		},
	}
}

func buildAlertStatsBody(q fleet.AlertStatsQuery) (map[string]interface{}, error) {
	terms := map[string]interface{}{
		"field": "monitor_id",
		"size":  q.Size,
	}
	if q.Order != nil {
		field, ok := aggregateSortFields[q.Order.Field]
		if !ok {
			return nil, fmt.Errorf("%w: %q", fleet.ErrInvalidSortKey, string(q.Order.Field))
		}
		terms["order"] = map[string]interface{}{field: string(q.Order.Direction)}
	}

	return map[string]interface{}{
		"size": 0,
		"query": map[string]interface{}{
			"terms": map[string]interface{}{"monitor_id": q.MonitorIDs},
		},
		"aggregations": map[string]interface{}{
			monitorBucketsAgg: map[string]interface{}{
				"terms": terms,
				"aggregations": map[string]interface{}{
					"active":       stateFilter(models.AlertStateActive),
					"acknowledged": stateFilter(models.AlertStateAcknowledged),
					"errors":       stateFilter(models.AlertStateError),
					"ignored": map[string]interface{}{
						"filter": map[string]interface{}{
							"bool": map[string]interface{}{
								"filter":   map[string]interface{}{"term": map[string]interface{}{"state": models.AlertStateCompleted}},
								"must_not": map[string]interface{}{"exists": map[string]interface{}{"field": "acknowledged_time"}},
							},
						},
					},
					"last_notification_time": map[string]interface{}{
						"max": map[string]interface{}{"field": "last_notification_time"},
					},
					"latest_alert": map[string]interface{}{
						"top_hits": map[string]interface{}{
							"size": 1,
							"sort": []interface{}{
								map[string]interface{}{"start_time": map[string]interface{}{"order": "desc"}},
							},
							"_source": map[string]interface{}{
								"includes": []string{"last_notification_time", "trigger_name"},
							},
						},
					},
				},
			},
		},
	}, nil
}

type docCount struct {
	DocCount int64 `json:"doc_count"`
}

type alertStatsBucket struct {
	Key                  string   `json:"key"`
	Active               docCount `json:"active"`
	Acknowledged         docCount `json:"acknowledged"`
	Errors               docCount `json:"errors"`
	Ignored              docCount `json:"ignored"`
	LastNotificationTime struct {
		Value *float64 `json:"value"`
	} `json:"last_notification_time"`
	LatestAlert struct {
		Hits struct {
			Hits []struct {
				Source models.AlertEvent `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	} `json:"latest_alert"`
}

type alertStatsResponse struct {
	Aggregations map[string]struct {
		Buckets []alertStatsBucket `json:"buckets"`
	} `json:"aggregations"`
}

// AggregateAlertStats returns one entry per monitor that has alert events,
// in bucket order. Monitors without events are absent.
func (c *Client) AggregateAlertStats(ctx context.Context, q fleet.AlertStatsQuery) ([]fleet.AlertAggregateStats, error) {
	if len(q.MonitorIDs) == 0 {
		return nil, nil
	}

	body, err := buildAlertStatsBody(q)
	if err != nil {
		return nil, err
	}

	var resp alertStatsResponse
	if err := c.search(ctx, "aggregate_alerts", c.config.AlertIndex, body, &resp); err != nil {
		return nil, err
	}

	buckets := resp.Aggregations[monitorBucketsAgg].Buckets
	stats := make([]fleet.AlertAggregateStats, 0, len(buckets))
	for _, b := range buckets {
		stats = append(stats, b.toStats())
	}
	return stats, nil
}

func (b alertStatsBucket) toStats() fleet.AlertAggregateStats {
	s := fleet.AlertAggregateStats{
		MonitorID:    b.Key,
		Active:       b.Active.DocCount,
		Acknowledged: b.Acknowledged.DocCount,
		Errors:       b.Errors.DocCount,
		Ignored:      b.Ignored.DocCount,
	}
	if v := b.LastNotificationTime.Value; v != nil {
		t := time.UnixMilli(int64(*v)).UTC()
		s.LastNotificationTime = &t
	}
	if hits := b.LatestAlert.Hits.Hits; len(hits) > 0 {
		name := hits[0].Source.TriggerName
		s.LatestAlert = &name
	}
	return s
}

type alertSummaryResponse struct {
	Aggregations struct {
		ActiveCount struct {
			Buckets []struct {
				Key      string `json:"key"`
				DocCount int64  `json:"doc_count"`
			} `json:"buckets"`
		} `json:"active_count"`
		DayCount struct {
			Buckets []docCount `json:"buckets"`
		} `json:"24_hour_count"`
	} `json:"aggregations"`
}

// MonitorAlertSummary counts the active alerts of a monitor and the alerts
// it started in the last 24 hours.
func (c *Client) MonitorAlertSummary(ctx context.Context, monitorID string) (fleet.AlertSummary, error) {
	body := map[string]interface{}{
		"size": 0,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"term": map[string]interface{}{"monitor_id": monitorID},
				},
			},
		},
		"aggs": map[string]interface{}{
			"active_count": map[string]interface{}{
				"terms": map[string]interface{}{"field": "state"},
			},
			"24_hour_count": map[string]interface{}{
				"date_range": map[string]interface{}{
					"field":  "start_time",
					"ranges": []interface{}{map[string]interface{}{"from": "now-24h/h"}},
				},
			},
		},
	}

	var resp alertSummaryResponse
	if err := c.search(ctx, "alert_summary", c.config.AlertIndex, body, &resp); err != nil {
		return fleet.AlertSummary{}, err
	}

	var summary fleet.AlertSummary
	for _, b := range resp.Aggregations.ActiveCount.Buckets {
		if b.Key == models.AlertStateActive {
			summary.ActiveCount = b.DocCount
		}
	}
	if buckets := resp.Aggregations.DayCount.Buckets; len(buckets) > 0 {
		summary.DayCount = buckets[0].DocCount
	}
	return summary, nil
}
