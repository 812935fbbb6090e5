package config

import (
	"strings"
	"testing"
)

const sampleYAML = `
alerts:
  - name: telegram-main
    medium: telegram
    chat_env: TELEGRAM_CHAT
    token_env: TELEGRAM_TOKEN
regions:
  - name: region-north
    send_interval: 5s
    miss_threshold: 2
    kuma_url: https://kuma.example.org/api/push/abc
    groups:
      - name: default
        fail_threshold: 4
        tests:
          - ping 1.1.1.1
          - http example.org
      - name: dns-stack
        tests:
          - dns example.org
  - name: region-south
    groups:
      - name: default
        tests:
          - ping 10.20.0.1
`

func TestParseDerivesThresholds(t *testing.T) {
	cfg, err := parse([]byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}

	north, ok := cfg.FindRegion("region-north")
	if !ok {
		t.Fatal("region-north not found")
	}
	if north.IntervalMS != 5000 {
		t.Errorf("interval = %d, want 5000", north.IntervalMS)
	}
	// interval * miss_threshold + 1000ms slack
	if north.ThresholdMS != 5000*2+1000 {
		t.Errorf("region threshold = %d, want 11000", north.ThresholdMS)
	}
	if north.KumaURL != "https://kuma.example.org/api/push/abc" {
		t.Errorf("kuma url = %q", north.KumaURL)
	}
	if got := north.Groups[0].ThresholdMS; got != 5000*4+1000 {
		t.Errorf("group threshold = %d, want 21000", got)
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := parse([]byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}

	south, ok := cfg.FindRegion("region-south")
	if !ok {
		t.Fatal("region-south not found")
	}
	// send_interval defaults to 10s, miss_threshold and fail_threshold to 3.
	if south.IntervalMS != 10000 {
		t.Errorf("interval = %d, want 10000", south.IntervalMS)
	}
	if south.ThresholdMS != 10000*3+1000 {
		t.Errorf("region threshold = %d, want 31000", south.ThresholdMS)
	}
	if got := south.Groups[0].ThresholdMS; got != 10000*3+1000 {
		t.Errorf("group threshold = %d, want 31000", got)
	}
}

func TestParseRejections(t *testing.T) {
	cases := map[string]string{
		"no regions":      `alerts: []`,
		"nameless region": `{regions: [{groups: []}]}`,
		"duplicate region": `
regions:
  - name: r1
    groups: []
  - name: r1
    groups: []`,
		"duplicate group": `
regions:
  - name: r1
    groups:
      - name: g1
        tests: []
      - name: g1
        tests: []`,
		"bad interval": `
regions:
  - name: r1
    send_interval: 3.5s
    groups: []`,
		"nameless alert": `
alerts:
  - medium: telegram
regions:
  - name: r1
    groups: []`,
		"alert without medium": `
alerts:
  - name: main
regions:
  - name: r1
    groups: []`,
	}
	for name, yaml := range cases {
		if _, err := parse([]byte(yaml)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestExportRegion(t *testing.T) {
	cfg, err := parse([]byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}

	exported, ok := cfg.ExportRegion("region-north")
	if !ok {
		t.Fatal("expected region-north export")
	}
	if exported.Name != "region-north" || len(exported.Groups) != 2 {
		t.Fatalf("unexpected export: %+v", exported)
	}
	if !strings.HasPrefix(exported.Groups[0].Tests[0], "ping ") {
		t.Errorf("tests not carried over: %v", exported.Groups[0].Tests)
	}

	if _, ok := cfg.ExportRegion("nowhere"); ok {
		t.Error("expected missing region to not export")
	}
}

func TestHasAlertEntry(t *testing.T) {
	cfg, err := parse([]byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.HasAlertEntry("telegram-main") {
		t.Error("expected telegram-main entry")
	}
	if cfg.HasAlertEntry("sms-backup") {
		t.Error("did not expect sms-backup entry")
	}
}
