package fleet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hamersu9t/alerting-dashboards-plugin/internal/logger"

	"go.uber.org/zap"
)

// MonitorDetail is a single monitor with its alert activity.
type MonitorDetail struct {
	Monitor MonitorRecord
	Summary AlertSummary
}

// GetMonitor returns the monitor with its active and last-day alert counts.
// ErrNotFound is returned when the monitor does not exist.
func (s *Service) GetMonitor(ctx context.Context, id string) (MonitorDetail, error) {
	m, err := s.monitors.GetMonitor(ctx, id)
	if err != nil {
		s.recordOperation("get", err)
		return MonitorDetail{}, err
	}

	summary, err := s.alerts.MonitorAlertSummary(ctx, id)
	s.recordOperation("get", err)
	if err != nil {
		return MonitorDetail{}, fmt.Errorf("failed to summarize alerts of monitor %s: %w", id, err)
	}

	return MonitorDetail{Monitor: m, Summary: summary}, nil
}

func (s *Service) CreateMonitor(ctx context.Context, body json.RawMessage) (MonitorRecord, error) {
	m, err := s.monitors.CreateMonitor(ctx, body)
	s.recordOperation("create", err)
	if err != nil {
		return MonitorRecord{}, err
	}
	logger.Info("Monitor created", zap.String("monitor_id", m.ID), zap.String("name", m.Name))
	return m, nil
}

// UpdateMonitor replaces the definition of a monitor stored at version. A
// write that does not land exactly one version later is a conflict.
func (s *Service) UpdateMonitor(ctx context.Context, id string, version int64, body json.RawMessage) (MonitorRecord, error) {
	m, err := s.monitors.UpdateMonitor(ctx, id, version, body)
	if err == nil && m.Version != version+1 {
		err = fmt.Errorf("%w: expected version %d, got %d", ErrVersionConflict, version+1, m.Version)
	}
	s.recordOperation("update", err)
	if err != nil {
		return MonitorRecord{}, err
	}
	return m, nil
}

func (s *Service) DeleteMonitor(ctx context.Context, id string) error {
	err := s.monitors.DeleteMonitor(ctx, id)
	s.recordOperation("delete", err)
	if err == nil {
		logger.Info("Monitor deleted", zap.String("monitor_id", id))
	}
	return err
}

// ExecuteMonitor runs a monitor definition on the alerting engine.
func (s *Service) ExecuteMonitor(ctx context.Context, body json.RawMessage, dryrun bool) (map[string]interface{}, error) {
	resp, err := s.alerting.ExecuteMonitor(ctx, body, dryrun)
	s.recordOperation("execute", err)
	return resp, err
}

func (s *Service) AcknowledgeAlerts(ctx context.Context, monitorID string, body json.RawMessage) (AckResult, error) {
	resp, err := s.alerting.AcknowledgeAlerts(ctx, monitorID, body)
	s.recordOperation("acknowledge", err)
	return resp, err
}

func (s *Service) recordOperation(op string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	case errors.Is(err, ErrVersionConflict):
		result = "conflict"
	default:
		result = "error"
		logger.Error("Monitor operation failed", zap.String("operation", op), zap.Error(err))
	}
	s.metrics.MonitorOperations.WithLabelValues(op, result).Inc()
}
