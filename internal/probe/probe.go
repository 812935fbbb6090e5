// Package probe executes single reachability tests (ping, http, dns). A
// test is a whitespace-separated descriptor whose first token selects the
// runner, e.g. "ping 1.1.1.1" or "http example.org/healthz".
package probe

import "fmt"

// Category classifies a completed test.
type Category uint8

const (
	Success Category = iota
	Warning
	Fail
)

func (c Category) String() string {
	switch c {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Fail:
		return "fail"
	default:
		return "unknown"
	}
}

// Result is the outcome of one executed test. Metrics carry optional
// numeric samples such as ping_rtt or http_latency (milliseconds).
type Result struct {
	Target   string
	Category Category
	Metrics  map[string]float64
}

// Error is a test that could not run at all: unknown descriptor, missing
// target or a failed system invocation. Message and Detail are forwarded on
// the heartbeat as error_message / error_detail.
type Error struct {
	Message string
	Detail  string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}
