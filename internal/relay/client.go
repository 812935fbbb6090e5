package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"watchdog"
)

const (
	// requestTimeout bounds a single controller round trip.
	requestTimeout = 30 * time.Second
	// retryMaxElapsed is the maximum time to retry a request.
	retryMaxElapsed = 10 * time.Second
)

// Client talks to the controller relay API and to Uptime Kuma push URLs.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a controller API client with exponential backoff on
// network errors.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: requestTimeout,
			Transport: &retryRoundTripper{
				base: http.DefaultTransport,
				newBackoff: func() backoff.BackOff {
					return backoff.NewExponentialBackOff(
						backoff.WithInitialInterval(100*time.Millisecond),
						backoff.WithMaxInterval(1*time.Second),
						backoff.WithMaxElapsedTime(retryMaxElapsed),
					)
				},
			},
		},
	}
}

// FetchRegionConf downloads the region configuration assigned to this relay.
func (c *Client) FetchRegionConf(ctx context.Context, region string) (*watchdog.RegionConfig, error) {
	endpoint := fmt.Sprintf("%s/api/v1/relay/%s", c.baseURL, url.PathEscape(region))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch region configuration: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch region configuration: expected HTTP OK, received %d", resp.StatusCode)
	}

	var conf watchdog.RegionConfig
	if err := json.NewDecoder(resp.Body).Decode(&conf); err != nil {
		return nil, fmt.Errorf("decode region configuration: %w", err)
	}
	return &conf, nil
}

// UpdateRegionState pushes one round of group results to the controller and
// returns the configuration version the controller advertised, which is empty
// when the controller sent none.
func (c *Client) UpdateRegionState(ctx context.Context, region string, results []watchdog.GroupResult) (string, error) {
	body, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("marshal group results: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/relay/%s", c.baseURL, url.PathEscape(region))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("update region state: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("update region state: expected HTTP OK, received %d", resp.StatusCode)
	}
	return resp.Header.Get(watchdog.VersionHeader), nil
}

// TriggerKumaUpdate reports the relay's view of the region to an Uptime Kuma
// push URL. The ping value is attached only when a round produced one.
func (c *Client) TriggerKumaUpdate(ctx context.Context, kumaURL, msg string, ping float64, hasPing bool) error {
	parsed, err := url.Parse(kumaURL)
	if err != nil {
		return fmt.Errorf("parse kuma URL: %w", err)
	}

	query := parsed.Query()
	query.Set("status", "up")
	query.Set("msg", msg)
	if hasPing {
		query.Set("ping", strconv.FormatFloat(ping, 'f', -1, 64))
	}
	parsed.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push kuma update: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push kuma update: expected HTTP OK, received %d", resp.StatusCode)
	}
	return nil
}

// retryRoundTripper retries requests on transient network errors.
type retryRoundTripper struct {
	base       http.RoundTripper
	newBackoff func() backoff.BackOff
}

func (rt *retryRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	attempt := func() (*http.Response, error) {
		if req.Body != nil && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, backoff.Permanent(err)
			}
			req.Body = body
		}
		resp, err := rt.base.RoundTrip(req)
		if err != nil {
			var opErr *net.OpError
			if errors.As(err, &opErr) {
				slog.Debug("Retrying controller request due to network error.", "error", err)
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return resp, nil
	}
	boff := backoff.WithContext(rt.newBackoff(), req.Context())
	return backoff.RetryWithData(attempt, boff)
}
