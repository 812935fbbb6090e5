package probe

import (
	"context"
	"strings"
)

// DNS reserves the "dns" descriptor. It must match so an unimplemented dns
// test reports "not supported" instead of falling through to the
// command-not-found error.
type DNS struct{}

func NewDNS() *DNS {
	return &DNS{}
}

func (d *DNS) Matches(test string) bool {
	return strings.HasPrefix(test, "dns")
}

func (d *DNS) Execute(_ context.Context, _ string) (Result, error) {
	return Result{}, &Error{Message: "DNS test failed", Detail: "The 'dns' command is not supported yet"}
}
