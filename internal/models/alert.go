package models

// Alert states
const (
	AlertStateActive       = "ACTIVE"
	AlertStateAcknowledged = "ACKNOWLEDGED"
	AlertStateCompleted    = "COMPLETED"
	AlertStateError        = "ERROR"
	AlertStateDeleted      = "DELETED"
)

// AlertEvent is an alert document in the alert index. Alerts are written by
// the alerting engine; this service only reads them. Times are epoch
// milliseconds.
type AlertEvent struct {
	ID                   string `json:"id,omitempty"`
	MonitorID            string `json:"monitor_id"`
	MonitorName          string `json:"monitor_name,omitempty"`
	TriggerID            string `json:"trigger_id,omitempty"`
	TriggerName          string `json:"trigger_name"`
	State                string `json:"state"`
	Severity             string `json:"severity,omitempty"`
	ErrorMessage         string `json:"error_message,omitempty"`
	StartTime            *int64 `json:"start_time,omitempty"`
	LastNotificationTime *int64 `json:"last_notification_time,omitempty"`
	AcknowledgedTime     *int64 `json:"acknowledged_time,omitempty"`
	EndTime              *int64 `json:"end_time,omitempty"`
}
