package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"watchdog/internal/store"
)

// handleExporter renders the metrics page scraped by Prometheus. The format
// is fixed: region status gauges first, a blank separator line, then the
// per-test metrics from the latest heartbeats.
func (s *Server) handleExporter(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	for _, metric := range s.store.CollectRegionMetrics() {
		writeMetricLine(&b, metric)
	}
	b.WriteString("\n")
	for _, metric := range s.store.CollectTestMetrics() {
		writeMetricLine(&b, metric)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, b.String())
}

func writeMetricLine(b *strings.Builder, metric store.FullMetric) {
	b.WriteString("watchdog_")
	b.WriteString(metric.Name)
	b.WriteString("{")
	for i, label := range metric.Labels {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(b, "%s=%q", label.Key, label.Value)
	}
	b.WriteString("} ")
	b.WriteString(strconv.FormatFloat(metric.Value, 'f', -1, 64))
	b.WriteString("\n")
}
