// Package watchdog holds the wire and domain types shared by the
// controller, the relays and the CLI.
package watchdog

// Status values reported for regions and groups in analytics payloads.
const (
	StatusInitial  = "initial"
	StatusUp       = "up"
	StatusWarn     = "warn"
	StatusDown     = "down"
	StatusIncident = "incident"
)

// VersionHeader carries the controller config version on every heartbeat
// response. A change of value tells the relay to re-fetch its configuration.
const VersionHeader = "X-Watchdog-Update"

// GroupConfig is the exported probe configuration for one monitoring group.
type GroupConfig struct {
	Name        string   `json:"name"`
	ThresholdMS uint64   `json:"threshold_ms"`
	Tests       []string `json:"tests"`
}

// RegionConfig is the configuration a relay fetches from the controller.
type RegionConfig struct {
	Name        string        `json:"name"`
	IntervalMS  uint64        `json:"interval_ms"`
	ThresholdMS uint64        `json:"threshold_ms"`
	KumaURL     string        `json:"kuma_url,omitempty"`
	Groups      []GroupConfig `json:"groups"`
}

// Metric is a single named sample attached to a group result.
type Metric struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels"`
	Value  float64           `json:"metric"`
}

// GroupResult is the per-group outcome a relay pushes on every heartbeat.
type GroupResult struct {
	Name         string   `json:"name"`
	Working      bool     `json:"working"`
	HasWarnings  bool     `json:"has_warnings"`
	ErrorMessage string   `json:"error_message,omitempty"`
	ErrorDetail  string   `json:"error_detail,omitempty"`
	Metrics      []Metric `json:"metrics"`
}

// RegionSummaryItem is one region row in the analytics snapshot.
type RegionSummaryItem struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	LastUpdate string `json:"last_update"`
}

// GroupSummaryItem is one group row in the analytics snapshot. The name is
// the composite "<region>.<group>" key.
type GroupSummaryItem struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	LastUpdate string `json:"last_update"`
	LastError  string `json:"last_error,omitempty"`
}

// IncidentItem is an immutable incident record.
type IncidentItem struct {
	ID        uint32 `json:"id"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error,omitempty"`
	Details   string `json:"details,omitempty"`
}

// Summary is the full analytics snapshot served by the controller.
type Summary struct {
	Regions   []RegionSummaryItem `json:"regions"`
	Groups    []GroupSummaryItem  `json:"groups"`
	Incidents []IncidentItem      `json:"incidents"`
}

// AlertTestResponse reports the outcome of a test broadcast to all mediums.
type AlertTestResponse struct {
	AlertsSent bool   `json:"alerts_sent"`
	Error      string `json:"error,omitempty"`
}
