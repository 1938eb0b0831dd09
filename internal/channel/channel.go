// Package channel sends outbound messages on the user's originating
// channel (email or chat), per spec.md §4.6 and §6.
package channel

import (
	"context"

	"github.com/dmitrymomot/followup-pipeline/internal/store"
)

// Sender delivers one outbox message on its channel.
type Sender interface {
	Send(ctx context.Context, payload store.OutboxPayload) error
}

// Registry looks up the Sender for a channel name.
type Registry map[string]Sender

// For returns the Sender registered for channel, or nil if none is
// registered (the outbox sender treats this as a failed send attempt,
// retried with backoff like any other until the attempt limit).
func (r Registry) For(channel string) Sender {
	return r[channel]
}
