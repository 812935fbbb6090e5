package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPSuccess(t *testing.T) {
	var gotUA, gotCC string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCC = r.Header.Get("Cache-Control")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	target := strings.TrimPrefix(srv.URL, "http://")
	h := NewHTTP()

	result, err := h.Execute(context.Background(), "http "+target)
	if err != nil {
		t.Fatal(err)
	}
	if result.Category != Success {
		t.Errorf("category = %v, want success", result.Category)
	}
	if result.Target != target {
		t.Errorf("target = %q", result.Target)
	}
	if result.Metrics["http_latency"] <= 0 {
		t.Errorf("http_latency = %v, want > 0", result.Metrics["http_latency"])
	}
	if gotUA != "watchdog-relay" {
		t.Errorf("user-agent = %q", gotUA)
	}
	if gotCC != "no-store" {
		t.Errorf("cache-control = %q", gotCC)
	}
}

func TestHTTPClientErrorWarns(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	h := NewHTTP()
	result, err := h.Execute(context.Background(), "http "+strings.TrimPrefix(srv.URL, "http://")+"/fail")
	if err != nil {
		t.Fatal(err)
	}
	if result.Category != Warning {
		t.Errorf("category = %v, want warning", result.Category)
	}
}

func TestHTTPTransportFailure(t *testing.T) {
	// Reserved TLD, guaranteed to not resolve.
	h := NewHTTP()
	result, err := h.Execute(context.Background(), "http www.does-not-exist.invalid")
	if err != nil {
		t.Fatal(err)
	}
	if result.Category != Fail {
		t.Errorf("category = %v, want fail", result.Category)
	}
}

func TestHTTPMissingTarget(t *testing.T) {
	h := NewHTTP()
	_, err := h.Execute(context.Background(), "http")
	perr, ok := err.(*Error)
	if !ok {
		t.Fatalf("err = %v, want *Error", err)
	}
	if perr.Detail != "The HTTP command expects a target" {
		t.Errorf("detail = %q", perr.Detail)
	}
}
