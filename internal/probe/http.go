package probe

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

const httpProbeTimeout = 10 * time.Second

// HTTP sends a GET to http://<target> and classifies the response status:
// transport failure is a Fail, a 4xx/5xx answer a Warning, anything else a
// Success. The wall-clock time to the response head is reported as the
// http_latency metric in milliseconds.
type HTTP struct {
	client *http.Client
}

// NewHTTP creates the runner with a reusable client so probes share one
// connection pool across ticks.
func NewHTTP() *HTTP {
	return &HTTP{client: &http.Client{Timeout: httpProbeTimeout}}
}

func (h *HTTP) Matches(test string) bool {
	return strings.HasPrefix(test, "http")
}

func (h *HTTP) Execute(ctx context.Context, test string) (Result, error) {
	fields := strings.Fields(test)
	if len(fields) < 2 {
		return Result{}, &Error{Message: "HTTP test failed", Detail: "The HTTP command expects a target"}
	}
	target := fields[1]

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+target, nil)
	if err != nil {
		return Result{}, &Error{Message: "HTTP test failed", Detail: err.Error()}
	}
	req.Header.Set("User-Agent", "watchdog-relay")
	req.Header.Set("Cache-Control", "no-store")

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return Result{Target: target, Category: Fail}, nil
	}
	latency := float64(time.Since(start)) / float64(time.Millisecond)

	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	category := Success
	if resp.StatusCode >= 400 {
		category = Warning
	}
	return Result{
		Target:   target,
		Category: category,
		Metrics:  map[string]float64{"http_latency": latency},
	}, nil
}
