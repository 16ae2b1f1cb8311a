package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hamersu9t/alerting-dashboards-plugin/internal/fleet"
	"github.com/hamersu9t/alerting-dashboards-plugin/internal/logger"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MonitorStore keeps monitor definitions as {"monitor": {...}} documents in
// the monitor index, using the document version as the monitor version.
type MonitorStore struct {
	client    *Client
	indexName string
}

func NewMonitorStore(client *Client) *MonitorStore {
	return &MonitorStore{client: client, indexName: client.config.MonitorIndex}
}

type monitorDoc struct {
	Monitor json.RawMessage `json:"monitor"`
}

type monitorHit struct {
	ID          string     `json:"_id"`
	Version     int64      `json:"_version"`
	SeqNo       *int       `json:"_seq_no"`
	PrimaryTerm *int       `json:"_primary_term"`
	Found       bool       `json:"found"`
	Source      monitorDoc `json:"_source"`
}

// toRecord surfaces every stored document. One whose definition cannot be
// read keeps its raw body with an empty name so that it still counts
// towards, and can be paged within, the search total.
func (h monitorHit) toRecord() fleet.MonitorRecord {
	rec := fleet.MonitorRecord{
		ID:      h.ID,
		Version: h.Version,
		Monitor: h.Source.Monitor,
	}
	def, err := fleet.ParseDefinition(h.Source.Monitor)
	if err != nil {
		logger.Warn("Monitor document has an unreadable definition",
			zap.String("monitor_id", h.ID), zap.Error(err))
		var partial fleet.Definition
		_ = json.Unmarshal(h.Source.Monitor, &partial)
		rec.Name = partial.Name
		rec.Enabled = partial.Enabled
		return rec
	}
	rec.Name = def.Name
	rec.Enabled = def.Enabled
	return rec
}

type monitorSearchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []monitorHit `json:"hits"`
	} `json:"hits"`
}

func buildMonitorSearchBody(q fleet.MonitorQuery) map[string]interface{} {
	filters := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"monitor.type": q.Filter.Type}},
	}
	if q.Filter.Enabled != nil {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"monitor.enabled": *q.Filter.Enabled},
		})
	}

	must := map[string]interface{}{"match_all": map[string]interface{}{}}
	if !q.Filter.MatchAll() {
		must = map[string]interface{}{
			"query_string": map[string]interface{}{
				"default_field":    "monitor.name",
				"default_operator": "AND",
				"query":            q.Filter.QueryString(),
			},
		}
	}

	body := map[string]interface{}{
		"version":          true,
		"track_total_hits": true,
		"from":             q.From,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filters,
			},
		},
	}
	if q.Size > 0 {
		body["size"] = q.Size
	}
	if q.Sort != nil {
		body["sort"] = []interface{}{
			map[string]interface{}{"monitor.name.keyword": string(q.Sort.Direction)},
		}
	}
	return body
}

// SearchMonitors runs q against the monitor index.
func (s *MonitorStore) SearchMonitors(ctx context.Context, q fleet.MonitorQuery) (fleet.MonitorHits, error) {
	var resp monitorSearchResponse
	if err := s.client.search(ctx, "search_monitors", s.indexName, buildMonitorSearchBody(q), &resp); err != nil {
		return fleet.MonitorHits{}, err
	}

	hits := fleet.MonitorHits{
		Total:    resp.Hits.Total.Value,
		Monitors: make([]fleet.MonitorRecord, 0, len(resp.Hits.Hits)),
	}
	for _, h := range resp.Hits.Hits {
		hits.Monitors = append(hits.Monitors, h.toRecord())
	}
	return hits, nil
}

func (s *MonitorStore) get(ctx context.Context, id string) (monitorHit, error) {
	res, err := s.client.do(ctx, "get_monitor", esapi.GetRequest{
		Index:      s.indexName,
		DocumentID: id,
	})
	if err != nil {
		return monitorHit{}, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return monitorHit{}, fleet.ErrNotFound
	}
	if res.IsError() {
		return monitorHit{}, fmt.Errorf("elasticsearch get_monitor error: %s", res.String())
	}

	var hit monitorHit
	if err := json.NewDecoder(res.Body).Decode(&hit); err != nil {
		return monitorHit{}, fmt.Errorf("failed to parse get_monitor response: %w", err)
	}
	if !hit.Found {
		return monitorHit{}, fleet.ErrNotFound
	}
	return hit, nil
}

func (s *MonitorStore) GetMonitor(ctx context.Context, id string) (fleet.MonitorRecord, error) {
	hit, err := s.get(ctx, id)
	if err != nil {
		return fleet.MonitorRecord{}, err
	}
	return hit.toRecord(), nil
}

type indexResponse struct {
	ID      string `json:"_id"`
	Version int64  `json:"_version"`
}

func (s *MonitorStore) index(ctx context.Context, op string, req esapi.IndexRequest, body json.RawMessage) (indexResponse, error) {
	data, err := json.Marshal(monitorDoc{Monitor: body})
	if err != nil {
		return indexResponse{}, fmt.Errorf("failed to marshal monitor: %w", err)
	}
	req.Index = s.indexName
	req.Body = bytes.NewReader(data)
	req.Refresh = "wait_for"

	res, err := s.client.do(ctx, op, req)
	if err != nil {
		return indexResponse{}, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusConflict {
		return indexResponse{}, fleet.ErrVersionConflict
	}
	if res.IsError() {
		return indexResponse{}, fmt.Errorf("elasticsearch %s error: %s", op, res.String())
	}

	var out indexResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return indexResponse{}, fmt.Errorf("failed to parse %s response: %w", op, err)
	}
	return out, nil
}

func (s *MonitorStore) CreateMonitor(ctx context.Context, body json.RawMessage) (fleet.MonitorRecord, error) {
	def, err := fleet.ParseDefinition(body)
	if err != nil {
		return fleet.MonitorRecord{}, err
	}

	out, err := s.index(ctx, "create_monitor", esapi.IndexRequest{
		DocumentID: uuid.NewString(),
		OpType:     "create",
	}, body)
	if err != nil {
		return fleet.MonitorRecord{}, err
	}

	return fleet.MonitorRecord{
		ID:      out.ID,
		Version: out.Version,
		Name:    def.Name,
		Enabled: def.Enabled,
		Monitor: body,
	}, nil
}

// UpdateMonitor replaces the monitor if its document is still at version.
// The write is conditional on the sequence number read alongside the
// version, so a concurrent update in between also yields a conflict.
func (s *MonitorStore) UpdateMonitor(ctx context.Context, id string, version int64, body json.RawMessage) (fleet.MonitorRecord, error) {
	def, err := fleet.ParseDefinition(body)
	if err != nil {
		return fleet.MonitorRecord{}, err
	}

	current, err := s.get(ctx, id)
	if err != nil {
		return fleet.MonitorRecord{}, err
	}
	if current.Version != version {
		return fleet.MonitorRecord{}, fleet.ErrVersionConflict
	}

	out, err := s.index(ctx, "update_monitor", esapi.IndexRequest{
		DocumentID:    id,
		IfSeqNo:       current.SeqNo,
		IfPrimaryTerm: current.PrimaryTerm,
	}, body)
	if err != nil {
		return fleet.MonitorRecord{}, err
	}

	return fleet.MonitorRecord{
		ID:      id,
		Version: out.Version,
		Name:    def.Name,
		Enabled: def.Enabled,
		Monitor: body,
	}, nil
}

func (s *MonitorStore) DeleteMonitor(ctx context.Context, id string) error {
	res, err := s.client.do(ctx, "delete_monitor", esapi.DeleteRequest{
		Index:      s.indexName,
		DocumentID: id,
		Refresh:    "wait_for",
	})
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return fleet.ErrNotFound
	}
	if res.IsError() {
		return fmt.Errorf("elasticsearch delete_monitor error: %s", res.String())
	}
	return nil
}

// CreateIndexTemplate installs the mapping of the monitor index.
func (s *MonitorStore) CreateIndexTemplate(ctx context.Context) error {
	templateName := s.indexName + "-template"

	template := map[string]interface{}{
		"index_patterns": []string{s.indexName},
		"template": map[string]interface{}{
			"settings": map[string]interface{}{
				"number_of_shards":   1,
				"number_of_replicas": 1,
			},
			"mappings": map[string]interface{}{
				"properties": map[string]interface{}{
					"monitor": map[string]interface{}{
						"properties": map[string]interface{}{
							"type":    map[string]string{"type": "keyword"},
							"enabled": map[string]string{"type": "boolean"},
							"name": map[string]interface{}{
								"type": "text",
								"fields": map[string]interface{}{
									"keyword": map[string]interface{}{"type": "keyword", "ignore_above": 256},
								},
							},
						},
					},
				},
			},
		},
	}

	body, err := json.Marshal(template)
	if err != nil {
		return fmt.Errorf("failed to marshal index template: %w", err)
	}

	res, err := s.client.do(ctx, "put_template", esapi.IndicesPutIndexTemplateRequest{
		Name: templateName,
		Body: bytes.NewReader(body),
	})
	if err != nil {
		return fmt.Errorf("failed to create index template: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		logger.Warn("Failed to create index template",
			zap.String("template", templateName),
			zap.String("response", res.String()),
		)
		return nil
	}
	logger.Info("Index template created", zap.String("template", templateName))
	return nil
}
