package probe

import (
	"context"
	"fmt"
)

// prober is one descriptor-matching test runner.
type prober interface {
	Matches(test string) bool
	Execute(ctx context.Context, test string) (Result, error)
}

// Runner dispatches a test descriptor to the first matching runner. The
// ordering is significant: descriptors match by prefix, so more specific
// runners come before less specific ones.
type Runner struct {
	probers []prober
}

func NewRunner() *Runner {
	return &Runner{probers: []prober{NewPing(), NewDNS(), NewHTTP()}}
}

// Execute runs one test descriptor. An unknown or empty descriptor yields a
// command-not-found Error.
func (r *Runner) Execute(ctx context.Context, test string) (Result, error) {
	for _, p := range r.probers {
		if p.Matches(test) {
			return p.Execute(ctx, test)
		}
	}
	return Result{}, &Error{Message: fmt.Sprintf("Test '%s' failed, command not found", test)}
}
