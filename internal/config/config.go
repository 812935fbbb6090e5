// Package config loads the controller YAML configuration and derives the
// runtime form exposed to relays: intervals and silence thresholds in
// milliseconds, plus the config version piggybacked on heartbeat responses.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"watchdog"
)

const (
	defaultSendInterval  = "10s"
	defaultMissThreshold = 3
	defaultFailThreshold = 3

	// thresholdSlackMS is fixed extra silence budget on top of the
	// interval*threshold product, so a single slow heartbeat does not
	// trip an incident.
	thresholdSlackMS = 1000
)

// AlertEntry declares one alert medium. Secrets are referenced through
// environment variable names, never stored in the file.
type AlertEntry struct {
	Name          string `yaml:"name"`
	Medium        string `yaml:"medium"`
	ChatEnv       string `yaml:"chat_env,omitempty"`
	TokenEnv      string `yaml:"token_env,omitempty"`
	RecipientsEnv string `yaml:"recipients_env,omitempty"`
}

// Group is the derived configuration of one monitoring group.
type Group struct {
	Name        string
	ThresholdMS uint64
	Medium      string
	Tests       []string
}

// Region is the derived configuration of one region.
type Region struct {
	Name        string
	IntervalMS  uint64
	ThresholdMS uint64
	KumaURL     string
	Groups      []Group
}

// Config is the fully derived controller configuration.
type Config struct {
	// Version is an opaque monotonic value, the UTC time of the last
	// load. Relays compare it against the heartbeat response header.
	Version string
	Regions []Region
	Alerts  []AlertEntry
}

type rawGroup struct {
	Name          string   `yaml:"name"`
	FailThreshold *uint64  `yaml:"fail_threshold"`
	Medium        string   `yaml:"medium,omitempty"`
	Tests         []string `yaml:"tests"`
}

type rawRegion struct {
	Name          string     `yaml:"name"`
	SendInterval  string     `yaml:"send_interval"`
	MissThreshold *uint64    `yaml:"miss_threshold"`
	KumaURL       string     `yaml:"kuma_url,omitempty"`
	Groups        []rawGroup `yaml:"groups"`
}

type rawConfig struct {
	Alerts  []AlertEntry `yaml:"alerts,omitempty"`
	Regions []rawRegion  `yaml:"regions"`
}

// Load reads and derives the configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	cfg.Version = time.Now().UTC().Format(time.RFC3339)
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if len(raw.Regions) == 0 {
		return nil, fmt.Errorf("config declares no regions")
	}

	cfg := &Config{Alerts: raw.Alerts}

	seenRegions := make(map[string]bool)
	for _, region := range raw.Regions {
		if region.Name == "" {
			return nil, fmt.Errorf("region without a name")
		}
		if seenRegions[region.Name] {
			return nil, fmt.Errorf("duplicate region %q", region.Name)
		}
		seenRegions[region.Name] = true

		interval := region.SendInterval
		if interval == "" {
			interval = defaultSendInterval
		}
		intervalMS, err := ParseMillis(interval)
		if err != nil {
			return nil, fmt.Errorf("region %q send_interval: %w", region.Name, err)
		}

		missThreshold := uint64(defaultMissThreshold)
		if region.MissThreshold != nil {
			missThreshold = *region.MissThreshold
		}

		derived := Region{
			Name:        region.Name,
			IntervalMS:  intervalMS,
			ThresholdMS: intervalMS*missThreshold + thresholdSlackMS,
			KumaURL:     region.KumaURL,
		}

		seenGroups := make(map[string]bool)
		for _, group := range region.Groups {
			if group.Name == "" {
				return nil, fmt.Errorf("region %q has a group without a name", region.Name)
			}
			if seenGroups[group.Name] {
				return nil, fmt.Errorf("region %q has duplicate group %q", region.Name, group.Name)
			}
			seenGroups[group.Name] = true

			failThreshold := uint64(defaultFailThreshold)
			if group.FailThreshold != nil {
				failThreshold = *group.FailThreshold
			}

			derived.Groups = append(derived.Groups, Group{
				Name:        group.Name,
				ThresholdMS: intervalMS*failThreshold + thresholdSlackMS,
				Medium:      group.Medium,
				Tests:       group.Tests,
			})
		}

		cfg.Regions = append(cfg.Regions, derived)
	}

	if err := validateAlerts(cfg.Alerts); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateAlerts(entries []AlertEntry) error {
	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.Name == "" {
			return fmt.Errorf("alert entry without a name")
		}
		if seen[entry.Name] {
			return fmt.Errorf("duplicate alert entry %q", entry.Name)
		}
		seen[entry.Name] = true
		if entry.Medium == "" {
			return fmt.Errorf("alert entry %q without a medium", entry.Name)
		}
	}
	return nil
}

// FindRegion returns the derived region by name.
func (c *Config) FindRegion(name string) (Region, bool) {
	for _, region := range c.Regions {
		if region.Name == name {
			return region, true
		}
	}
	return Region{}, false
}

// ExportRegion builds the wire form of a region configuration for a relay.
func (c *Config) ExportRegion(name string) (watchdog.RegionConfig, bool) {
	region, ok := c.FindRegion(name)
	if !ok {
		return watchdog.RegionConfig{}, false
	}

	exported := watchdog.RegionConfig{
		Name:        region.Name,
		IntervalMS:  region.IntervalMS,
		ThresholdMS: region.ThresholdMS,
		KumaURL:     region.KumaURL,
	}
	for _, group := range region.Groups {
		exported.Groups = append(exported.Groups, watchdog.GroupConfig{
			Name:        group.Name,
			ThresholdMS: group.ThresholdMS,
			Tests:       group.Tests,
		})
	}
	return exported, true
}

// HasAlertEntry reports whether an alert entry with the given name is
// declared. Groups route their alerts by entry name.
func (c *Config) HasAlertEntry(name string) bool {
	for _, entry := range c.Alerts {
		if entry.Name == name {
			return true
		}
	}
	return false
}
