package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hamersu9t/alerting-dashboards-plugin/internal/fleet"
	"github.com/hamersu9t/alerting-dashboards-plugin/internal/metrics"
	"github.com/hamersu9t/alerting-dashboards-plugin/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MonitorStore keeps monitor definitions in a SQL database.
type MonitorStore struct {
	db      *gorm.DB
	metrics *metrics.Metrics
}

func NewMonitorStore(db *gorm.DB, m *metrics.Metrics) *MonitorStore {
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	return &MonitorStore{db: db, metrics: m}
}

// SearchMonitors returns the monitors matching q. Without a sort the rows
// come back in creation order.
func (s *MonitorStore) SearchMonitors(ctx context.Context, q fleet.MonitorQuery) (fleet.MonitorHits, error) {
	start := time.Now()
	hits, err := s.search(ctx, q)
	s.metrics.ObserveStore("database", "search", start, err)
	return hits, err
}

func (s *MonitorStore) search(ctx context.Context, q fleet.MonitorQuery) (fleet.MonitorHits, error) {
	var total int64
	if err := s.filtered(ctx, q.Filter).Count(&total).Error; err != nil {
		return fleet.MonitorHits{}, fmt.Errorf("failed to count monitors: %w", err)
	}

	tx := s.filtered(ctx, q.Filter)
	if q.Sort != nil {
		tx = tx.Order(clause.OrderByColumn{
			Column: clause.Column{Name: "name"},
			Desc:   q.Sort.Direction == fleet.Desc,
		})
	}
	tx = tx.Order("created_at").Order("id")
	if q.From > 0 {
		tx = tx.Offset(q.From)
	}
	if q.Size > 0 {
		tx = tx.Limit(q.Size)
	}

	var rows []models.Monitor
	if err := tx.Find(&rows).Error; err != nil {
		return fleet.MonitorHits{}, fmt.Errorf("failed to search monitors: %w", err)
	}

	hits := fleet.MonitorHits{
		Total:    total,
		Monitors: make([]fleet.MonitorRecord, 0, len(rows)),
	}
	for _, row := range rows {
		hits.Monitors = append(hits.Monitors, toRecord(row))
	}
	return hits, nil
}

// filtered starts a new query restricted by f.
func (s *MonitorStore) filtered(ctx context.Context, f fleet.Filter) *gorm.DB {
	tx := s.db.WithContext(ctx).Model(&models.Monitor{}).Where("type = ?", f.Type)
	if f.Enabled != nil {
		tx = tx.Where("enabled = ?", *f.Enabled)
	}
	for _, term := range f.Terms {
		tx = tx.Where("LOWER(name) LIKE ? ESCAPE '!'", "%"+escapeLike(strings.ToLower(term))+"%")
	}
	return tx
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (s *MonitorStore) GetMonitor(ctx context.Context, id string) (fleet.MonitorRecord, error) {
	start := time.Now()
	var row models.Monitor
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	s.metrics.ObserveStore("database", "get", start, ignoreNotFound(err))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fleet.MonitorRecord{}, fleet.ErrNotFound
	}
	if err != nil {
		return fleet.MonitorRecord{}, fmt.Errorf("failed to get monitor: %w", err)
	}
	return toRecord(row), nil
}

func (s *MonitorStore) CreateMonitor(ctx context.Context, body json.RawMessage) (fleet.MonitorRecord, error) {
	def, err := fleet.ParseDefinition(body)
	if err != nil {
		return fleet.MonitorRecord{}, err
	}

	row := models.Monitor{
		ID:         uuid.NewString(),
		Version:    1,
		Type:       def.Type,
		Name:       def.Name,
		Enabled:    def.Enabled,
		Definition: string(body),
	}

	start := time.Now()
	err = s.db.WithContext(ctx).Create(&row).Error
	s.metrics.ObserveStore("database", "create", start, err)
	if err != nil {
		return fleet.MonitorRecord{}, fmt.Errorf("failed to create monitor: %w", err)
	}
	return toRecord(row), nil
}

// UpdateMonitor writes body only if the row is still at version, bumping
// the version by one.
func (s *MonitorStore) UpdateMonitor(ctx context.Context, id string, version int64, body json.RawMessage) (fleet.MonitorRecord, error) {
	def, err := fleet.ParseDefinition(body)
	if err != nil {
		return fleet.MonitorRecord{}, err
	}

	start := time.Now()
	res := s.db.WithContext(ctx).Model(&models.Monitor{}).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]interface{}{
			"type":       def.Type,
			"name":       def.Name,
			"enabled":    def.Enabled,
			"definition": string(body),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	s.metrics.ObserveStore("database", "update", start, res.Error)
	if res.Error != nil {
		return fleet.MonitorRecord{}, fmt.Errorf("failed to update monitor: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Monitor{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fleet.MonitorRecord{}, fmt.Errorf("failed to check monitor: %w", err)
		}
		if count == 0 {
			return fleet.MonitorRecord{}, fleet.ErrNotFound
		}
		return fleet.MonitorRecord{}, fleet.ErrVersionConflict
	}

	return s.GetMonitor(ctx, id)
}

func (s *MonitorStore) DeleteMonitor(ctx context.Context, id string) error {
	start := time.Now()
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Monitor{})
	s.metrics.ObserveStore("database", "delete", start, res.Error)
	if res.Error != nil {
		return fmt.Errorf("failed to delete monitor: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fleet.ErrNotFound
	}
	return nil
}

func toRecord(row models.Monitor) fleet.MonitorRecord {
	return fleet.MonitorRecord{
		ID:      row.ID,
		Version: row.Version,
		Name:    row.Name,
		Enabled: row.Enabled,
		Monitor: json.RawMessage(row.Definition),
	}
}

func ignoreNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
