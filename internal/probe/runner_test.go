package probe

import (
	"context"
	"strings"
	"testing"
)

func TestRunnerUnknownCommand(t *testing.T) {
	r := NewRunner()

	_, err := r.Execute(context.Background(), "unknown")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "Test 'unknown' failed, command not found" {
		t.Errorf("error = %q", err.Error())
	}
}

func TestRunnerEmptyCommand(t *testing.T) {
	r := NewRunner()

	_, err := r.Execute(context.Background(), "")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "Test '' failed, command not found" {
		t.Errorf("error = %q", err.Error())
	}
}

func TestRunnerDNSReserved(t *testing.T) {
	r := NewRunner()

	_, err := r.Execute(context.Background(), "dns example.org")
	perr, ok := err.(*Error)
	if !ok {
		t.Fatalf("err = %v, want *Error", err)
	}
	// Must not fall through to command-not-found.
	if strings.Contains(perr.Message, "command not found") {
		t.Errorf("dns fell through to dispatch error: %q", perr.Message)
	}
	if perr.Detail != "The 'dns' command is not supported yet" {
		t.Errorf("detail = %q", perr.Detail)
	}
}

func TestRunnerDispatchOrder(t *testing.T) {
	r := NewRunner()

	// A ping descriptor must reach the ping runner, not the http runner.
	r.probers[0] = &Ping{run: fakePingOutput(pingOutput)}
	result, err := r.Execute(context.Background(), "ping 1.1.1.1")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := result.Metrics["ping_rtt"]; !ok {
		t.Error("ping descriptor did not reach the ping runner")
	}
}
