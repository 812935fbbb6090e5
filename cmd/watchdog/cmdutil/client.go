// Package cmdutil holds the controller API client used by the read-side CLI
// commands (status, incident, alerting).
package cmdutil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"watchdog"
)

const defaultAddr = "http://127.0.0.1:3030"

// Client is a thin authenticated JSON client for the controller API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Connect resolves the controller address and token from the environment:
// WATCHDOG_ADDR (default http://127.0.0.1:3030) and WATCHDOG_TOKEN.
func Connect() (*Client, error) {
	token := os.Getenv("WATCHDOG_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("WATCHDOG_TOKEN is not set")
	}

	addr := os.Getenv("WATCHDOG_ADDR")
	if addr == "" {
		addr = defaultAddr
	}
	return NewClient(addr, token), nil
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Analytics fetches the full controller snapshot.
func (c *Client) Analytics(ctx context.Context) (*watchdog.Summary, error) {
	var summary watchdog.Summary
	if err := c.call(ctx, http.MethodGet, "/api/v1/analytics", &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Incidents fetches every recorded incident.
func (c *Client) Incidents(ctx context.Context) ([]watchdog.IncidentItem, error) {
	var incidents []watchdog.IncidentItem
	if err := c.call(ctx, http.MethodGet, "/api/v1/incidents", &incidents); err != nil {
		return nil, err
	}
	return incidents, nil
}

// Incident fetches a single incident by id.
func (c *Client) Incident(ctx context.Context, id uint32) (*watchdog.IncidentItem, error) {
	var incident watchdog.IncidentItem
	path := fmt.Sprintf("/api/v1/incidents/%d", id)
	if err := c.call(ctx, http.MethodGet, path, &incident); err != nil {
		return nil, err
	}
	return &incident, nil
}

// TestAlerts asks the controller to broadcast the canned test message.
func (c *Client) TestAlerts(ctx context.Context) (*watchdog.AlertTestResponse, error) {
	var resp watchdog.AlertTestResponse
	if err := c.call(ctx, http.MethodPost, "/api/v1/alerting/test", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) call(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reach controller: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode controller response: %w", err)
	}
	return nil
}

// apiError surfaces the controller's JSON error message when there is one.
func apiError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Message != "" {
		return fmt.Errorf("%s (HTTP %d)", body.Message, resp.StatusCode)
	}
	return fmt.Errorf("controller answered HTTP %d", resp.StatusCode)
}
