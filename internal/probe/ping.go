package probe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Ping runs the system ping utility with a single packet and a 2 second
// wait, then reads the minimum rtt from the summary line.
type Ping struct {
	// run overrides the system invocation for tests. Returns stdout.
	run func(ctx context.Context, target string) ([]byte, error)
}

func NewPing() *Ping {
	return &Ping{run: runSystemPing}
}

func runSystemPing(ctx context.Context, target string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "ping", "-c", "1", "-w", "2", target)
	return cmd.Output()
}

func (p *Ping) Matches(test string) bool {
	return strings.HasPrefix(test, "ping")
}

func (p *Ping) Execute(ctx context.Context, test string) (Result, error) {
	fields := strings.Fields(test)
	if len(fields) < 2 {
		return Result{}, &Error{Message: "Ping test failed", Detail: "The ping command expects a valid target"}
	}
	target := fields[1]

	out, err := p.run(ctx, target)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Packet loss or unreachable target.
			return Result{Target: target, Category: Fail}, nil
		}
		return Result{}, &Error{Message: "Failed to ping", Detail: err.Error()}
	}

	rtt, err := parseRTT(string(out))
	if err != nil {
		return Result{}, &Error{Message: "Failed to ping", Detail: err.Error()}
	}

	category := Success
	if rtt >= 100 {
		category = Warning
	}
	return Result{
		Target:   target,
		Category: category,
		Metrics:  map[string]float64{"ping_rtt": rtt},
	}, nil
}

// parseRTT extracts the minimum round-trip time in milliseconds from the
// iputils summary line, e.g.
// "rtt min/avg/max/mdev = 11.287/11.287/11.287/0.000 ms".
func parseRTT(stdout string) (float64, error) {
	for _, line := range strings.Split(stdout, "\n") {
		if !strings.HasPrefix(line, "rtt") {
			continue
		}
		_, values, ok := strings.Cut(line, " = ")
		if !ok {
			break
		}
		first, _, _ := strings.Cut(values, "/")
		rtt, err := strconv.ParseFloat(first, 64)
		if err != nil {
			return 0, fmt.Errorf("parse rtt %q: %w", first, err)
		}
		return rtt, nil
	}
	return 0, fmt.Errorf("no rtt summary in ping output")
}
