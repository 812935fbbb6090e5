// Package relay implements the probe agent: it fetches its region
// configuration from the controller, runs the configured tests on an
// interval and pushes the results back as heartbeats.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"watchdog"
	"watchdog/internal/probe"
)

// testRunner dispatches one test descriptor.
type testRunner interface {
	Execute(ctx context.Context, test string) (probe.Result, error)
}

// Relay drives the heartbeat loop for one region.
type Relay struct {
	client *Client
	runner testRunner
	region string
	log    *slog.Logger

	// lastVersion tracks the controller config version. The first observed
	// value is recorded without a reload; only a later change triggers one.
	lastVersion string
}

func New(client *Client, runner testRunner, region string) *Relay {
	return &Relay{
		client: client,
		runner: runner,
		region: region,
		log:    slog.With("component", "relay"),
	}
}

// Run fetches the region configuration and loops until the context is
// cancelled. A failure of the initial fetch is returned to the caller; after
// that, transient push and reload failures are logged and the loop keeps
// going with the configuration it has.
func (r *Relay) Run(ctx context.Context) error {
	conf, err := r.client.FetchRegionConf(ctx, r.region)
	if err != nil {
		return err
	}
	r.log.Info("Relay configured.",
		"region", conf.Name,
		"interval_ms", conf.IntervalMS,
		"groups", len(conf.Groups))

	for {
		conf = r.tick(ctx, conf)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(conf.IntervalMS) * time.Millisecond):
		}
	}
}

// tick runs one full round: execute every test, push the heartbeat, reload
// the configuration if the controller advertised a new version, and push the
// optional Uptime Kuma update.
func (r *Relay) tick(ctx context.Context, conf *watchdog.RegionConfig) *watchdog.RegionConfig {
	round := r.executeTests(ctx, conf)

	version, err := r.client.UpdateRegionState(ctx, conf.Name, round.results)
	if err != nil {
		r.log.Error("Failed to push region state to controller.", "error", err)
	} else if next := r.maybeReload(ctx, version); next != nil {
		conf = next
	}

	if conf.KumaURL != "" {
		msg := kumaMessage(len(conf.Groups), round.unstable)
		if err := r.client.TriggerKumaUpdate(ctx, conf.KumaURL, msg, round.lastPing, round.hasPing); err != nil {
			r.log.Error("Failed to push kuma update.", "error", err)
		}
	}
	return conf
}

// maybeReload compares the advertised version against the last seen one and
// re-fetches the configuration on a change. It returns nil when the current
// configuration stays in effect.
func (r *Relay) maybeReload(ctx context.Context, version string) *watchdog.RegionConfig {
	if version == "" || version == r.lastVersion {
		return nil
	}
	if r.lastVersion == "" {
		r.lastVersion = version
		return nil
	}

	r.log.Info("Controller configuration changed, reloading.", "version", version)
	conf, err := r.client.FetchRegionConf(ctx, r.region)
	if err != nil {
		r.log.Error("Could not fetch configuration from server.", "error", err)
		return nil
	}
	r.lastVersion = version
	return conf
}

// round aggregates one pass over all groups.
type round struct {
	results  []watchdog.GroupResult
	unstable int
	lastPing float64
	hasPing  bool
}

func (r *Relay) executeTests(ctx context.Context, conf *watchdog.RegionConfig) round {
	var rnd round

	for _, group := range conf.Groups {
		gr := watchdog.GroupResult{Name: group.Name, Working: true}

		for _, test := range group.Tests {
			result, err := r.runner.Execute(ctx, test)
			if err != nil {
				gr.Working = false
				var perr *probe.Error
				if errors.As(err, &perr) {
					gr.ErrorMessage = perr.Message
					gr.ErrorDetail = perr.Detail
				} else {
					gr.ErrorMessage = err.Error()
					gr.ErrorDetail = ""
				}
				continue
			}

			switch result.Category {
			case probe.Fail:
				gr.Working = false
				gr.ErrorMessage = fmt.Sprintf("test '%s' failed", test)
				gr.ErrorDetail = ""
			case probe.Warning:
				gr.HasWarnings = true
			}

			for name, value := range result.Metrics {
				gr.Metrics = append(gr.Metrics, watchdog.Metric{
					Name:   name,
					Labels: map[string]string{"test_target": result.Target},
					Value:  value,
				})
				if name == "ping_rtt" {
					rnd.lastPing = value
					rnd.hasPing = true
				}
			}
		}

		if !gr.Working || gr.HasWarnings {
			rnd.unstable++
		}
		rnd.results = append(rnd.results, gr)
	}
	return rnd
}

// kumaMessage summarises a round for the Uptime Kuma status page.
func kumaMessage(total, unstable int) string {
	if unstable == 0 {
		return fmt.Sprintf("OK %d healthy", total)
	}
	return fmt.Sprintf("WARN %d unstable", unstable)
}
