package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hamersu9t/alerting-dashboards-plugin/internal/fleet"
)

// ExecuteMonitor asks the alerting engine to run a monitor definition. With
// dryrun set, the engine evaluates triggers without sending notifications.
func (c *Client) ExecuteMonitor(ctx context.Context, body json.RawMessage, dryrun bool) (map[string]interface{}, error) {
	var out map[string]interface{}
	err := c.alertingCall(ctx, "execute_monitor", rawRequest{
		Method: http.MethodPost,
		Path:   c.alertingPath("monitors", "_execute"),
		Params: url.Values{"dryrun": []string{strconv.FormatBool(dryrun)}},
		Body:   bytes.NewReader(body),
	}, &out)
	return out, err
}

// AcknowledgeAlerts acknowledges the alerts named in body, e.g.
// {"alerts": ["id1", "id2"]}.
func (c *Client) AcknowledgeAlerts(ctx context.Context, monitorID string, body json.RawMessage) (fleet.AckResult, error) {
	var out fleet.AckResult
	err := c.alertingCall(ctx, "acknowledge_alerts", rawRequest{
		Method: http.MethodPost,
		Path:   c.alertingPath("monitors", monitorID, "_acknowledge", "alerts"),
		Body:   bytes.NewReader(body),
	}, &out)
	return out, err
}

func (c *Client) alertingCall(ctx context.Context, op string, req rawRequest, v interface{}) error {
	res, err := c.do(ctx, op, req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return fleet.ErrNotFound
	}
	if res.IsError() {
		return fmt.Errorf("alerting %s error: %s", op, res.String())
	}

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", op, err)
	}
	return nil
}
