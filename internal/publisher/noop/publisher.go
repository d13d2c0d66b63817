// Package noop provides a publisher that drops every event, used when
// no event transport is configured.
package noop

import "context"

// Publisher drops all events.
type Publisher struct{}

// New returns a noop publisher.
func New() *Publisher { return &Publisher{} }

// Publish discards the payload.
func (*Publisher) Publish(_ context.Context, _ any) (string, error) {
	return "", nil
}

// Close is a no-op.
func (*Publisher) Close() error { return nil }
