// Package push delivers notifications to registered device tokens.
package push

import "context"

// Report summarizes one multicast send. Partial failures (some tokens stale)
// are counted, not surfaced as errors.
type Report struct {
	Delivered int
	Failed    int
}

// Sender sends one message to a set of device tokens belonging to a single
// user. Implementations must treat an empty token list as a no-op.
type Sender interface {
	SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string) (*Report, error)
}
