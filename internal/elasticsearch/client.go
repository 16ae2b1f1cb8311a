package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hamersu9t/alerting-dashboards-plugin/internal/config"
	"github.com/hamersu9t/alerting-dashboards-plugin/internal/logger"
	"github.com/hamersu9t/alerting-dashboards-plugin/internal/metrics"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type Client struct {
	es      *elasticsearch.Client
	config  config.ElasticsearchConfig
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Metrics
}

// NewClient connects to the cluster and checks it is reachable.
func NewClient(cfg config.ElasticsearchConfig, breakerCfg config.BreakerConfig, m *metrics.Metrics) (*Client, error) {
	if m == nil {
		m = metrics.NewMetrics(nil)
	}

	// failed calls are never retried; the breaker decides when to try again
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    cfg.Addresses,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	res, err := es.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch returned error: %s", res.String())
	}

	client := &Client{
		es:      es,
		config:  cfg,
		breaker: newBreaker("elasticsearch", breakerCfg, m),
		metrics: m,
	}

	logger.Info("Elasticsearch client initialized",
		zap.Strings("addresses", cfg.Addresses),
		zap.String("alert_index", cfg.AlertIndex),
	)

	return client, nil
}

// do runs req through the circuit breaker. Transport errors and 5xx
// responses count as breaker failures and are returned as errors; any other
// response is returned for the caller to inspect and close.
func (c *Client) do(ctx context.Context, op string, req esapi.Request) (*esapi.Response, error) {
	start := time.Now()
	out, err := c.breaker.Execute(func() (interface{}, error) {
		res, err := req.Do(ctx, c.es)
		if err != nil {
			return nil, err
		}
		if res.StatusCode >= http.StatusInternalServerError {
			defer res.Body.Close()
			return nil, fmt.Errorf("elasticsearch returned error: %s", res.String())
		}
		return res, nil
	})
	c.metrics.ObserveStore("elasticsearch", op, start, err)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch %s failed: %w", op, err)
	}
	return out.(*esapi.Response), nil
}

// search runs a search body against index and decodes the response into v.
func (c *Client) search(ctx context.Context, op string, index string, body interface{}, v interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal %s query: %w", op, err)
	}

	ignoreUnavailable := true
	res, err := c.do(ctx, op, esapi.SearchRequest{
		Index:             []string{index},
		Body:              bytes.NewReader(data),
		IgnoreUnavailable: &ignoreUnavailable,
	})
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch %s error: %s", op, res.String())
	}

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", op, err)
	}
	return nil
}

// rawRequest calls an endpoint esapi has no typed request for, such as the
// alerting engine API.
type rawRequest struct {
	Method string
	Path   string
	Params url.Values
	Body   io.Reader
}

func (r rawRequest) Do(ctx context.Context, transport esapi.Transport) (*esapi.Response, error) {
	u := &url.URL{Path: r.Path}
	if len(r.Params) > 0 {
		u.RawQuery = r.Params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, u.String(), r.Body)
	if err != nil {
		return nil, err
	}
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := transport.Perform(req)
	if err != nil {
		return nil, err
	}
	return &esapi.Response{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       res.Body,
	}, nil
}

func (c *Client) alertingPath(parts ...string) string {
	return strings.TrimRight(c.config.AlertingAPIPath, "/") + "/" + strings.Join(parts, "/")
}
