package queue

import "context"

// Client enqueues generation requests. Delivery is at least once, so the
// consumer relies on the generation key for idempotency rather than on the
// transport.
type Client interface {
	Send(ctx context.Context, msg Message) error
}
