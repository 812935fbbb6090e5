// Package scheduler holds the controller-side background loops: the silence
// sweep that turns stale heartbeats into incidents, and the NTP drift
// checker that guards the timestamp math the sweep depends on.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"watchdog"
	"watchdog/internal/config"
	"watchdog/internal/store"
)

// sweepInterval is how often the scheduler inspects heartbeat timestamps.
const sweepInterval = 1 * time.Second

// Alerter dispatches an alert through one medium, or any medium when the
// id is empty.
type Alerter interface {
	Alert(ctx context.Context, mediumID, message string) error
}

// Scheduler watches heartbeat timestamps and escalates silence to incidents.
type Scheduler struct {
	conf    *config.Config
	store   *store.Store
	alerter Alerter
	clock   watchdog.Clock
	log     *slog.Logger
}

func NewScheduler(conf *config.Config, st *store.Store, alerter Alerter, clock watchdog.Clock) *Scheduler {
	if clock == nil {
		clock = watchdog.RealClock{}
	}
	return &Scheduler{
		conf:    conf,
		store:   st,
		alerter: alerter,
		clock:   clock,
		log:     slog.With("component", "scheduler"),
	}
}

// Run sweeps every second until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep inspects every region and group once. Regions escalate from Up or
// Warn when their relay has been silent past the region threshold; groups
// escalate from Down when they have not recovered within the group
// threshold. Alert delivery failures are logged and never stop the sweep.
func (s *Scheduler) Sweep(ctx context.Context) {
	now := s.clock.Now()

	for _, region := range s.conf.Regions {
		s.sweepRegion(ctx, now, region)
		for _, group := range region.Groups {
			s.sweepGroup(ctx, now, region, group)
		}
	}
}

func (s *Scheduler) sweepRegion(ctx context.Context, now time.Time, region config.Region) {
	status, ok := s.store.GetRegionStatus(region.Name)
	if !ok {
		return
	}
	if status.State != store.RegionUp && status.State != store.RegionWarn {
		return
	}

	silence := now.Sub(status.UpdatedAt)
	if silence <= time.Duration(region.ThresholdMS)*time.Millisecond {
		return
	}

	s.log.Warn("INCIDENT ON REGION", "region", region.Name, "silence", silence)
	if err := s.store.TriggerRegionIncident(region.Name, region.ThresholdMS); err != nil {
		s.log.Error("Failed to record region incident.", "region", region.Name, "error", err)
		return
	}

	message := fmt.Sprintf("Network DOWN on region %s", region.Name)
	if err := s.alerter.Alert(ctx, "", message); err != nil {
		s.log.Error("Failed to send region alert.", "region", region.Name, "error", err)
	}
}

func (s *Scheduler) sweepGroup(ctx context.Context, now time.Time, region config.Region, group config.Group) {
	status, ok := s.store.GetGroupStatus(region.Name, group.Name)
	if !ok {
		return
	}
	// Only Down groups escalate: an Incident group already did, and a
	// working group has nothing to escalate.
	if status.State != store.GroupDown {
		return
	}

	age := now.Sub(status.UpdatedAt)
	if age <= time.Duration(group.ThresholdMS)*time.Millisecond {
		return
	}

	s.log.Warn("INCIDENT ON GROUP", "region", region.Name, "group", group.Name, "age", age)
	if err := s.store.TriggerGroupIncident(region.Name, group.Name); err != nil {
		s.log.Error("Failed to record group incident.",
			"region", region.Name, "group", group.Name, "error", err)
		return
	}

	message := fmt.Sprintf("Network DOWN on group %s.%s", region.Name, group.Name)
	if err := s.alerter.Alert(ctx, group.Medium, message); err != nil {
		s.log.Error("Failed to send group alert.",
			"region", region.Name, "group", group.Name, "error", err)
	}
}
