package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/beevik/ntp"

	"watchdog"
)

const (
	defaultNTPPool      = "pool.ntp.org"
	defaultNTPInterval  = 60 * time.Second
	defaultNTPThreshold = 500 * time.Millisecond
)

// NTPStatus is the outcome of the latest drift check.
type NTPStatus struct {
	Offset    time.Duration
	Healthy   bool
	Error     string
	CheckedAt time.Time
}

// NTPChecker periodically measures local clock drift against an NTP pool.
// The incident sweep compares wall-clock timestamps from different hosts,
// so a drifting controller clock silently skews every threshold.
type NTPChecker struct {
	mu        sync.RWMutex
	status    NTPStatus
	pool      string
	interval  time.Duration
	threshold time.Duration
	clock     watchdog.Clock
	log       *slog.Logger

	// CheckFunc overrides the NTP query, for tests.
	CheckFunc func() NTPStatus
}

func NewNTPChecker(clock watchdog.Clock) *NTPChecker {
	if clock == nil {
		clock = watchdog.RealClock{}
	}
	return &NTPChecker{
		pool:      defaultNTPPool,
		interval:  defaultNTPInterval,
		threshold: defaultNTPThreshold,
		clock:     clock,
		log:       slog.With("component", "ntp"),
	}
}

func (n *NTPChecker) Run(ctx context.Context) {
	n.check()

	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.check()
		}
	}
}

func (n *NTPChecker) check() {
	status := n.measure()

	n.mu.Lock()
	n.status = status
	n.mu.Unlock()

	switch {
	case status.Error != "":
		n.log.Warn("NTP drift check failed.", "error", status.Error)
	case !status.Healthy:
		n.log.Warn("Local clock drift exceeds threshold, incident timing may be skewed.",
			"offset", status.Offset, "threshold", n.threshold)
	}
}

func (n *NTPChecker) measure() NTPStatus {
	if n.CheckFunc != nil {
		return n.CheckFunc()
	}

	resp, err := ntp.Query(n.pool)
	now := n.clock.Now()
	if err != nil {
		return NTPStatus{Error: err.Error(), CheckedAt: now}
	}

	offset := resp.ClockOffset
	if offset < 0 {
		offset = -offset
	}
	return NTPStatus{
		Offset:    resp.ClockOffset,
		Healthy:   offset < n.threshold,
		CheckedAt: now,
	}
}

func (n *NTPChecker) Status() NTPStatus {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.status
}
