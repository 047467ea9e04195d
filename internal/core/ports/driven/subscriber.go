package driven

import "context"

// Subscriber is one live streaming connection expecting serialised
// change events. The broadcaster owns the subscriber set; a subscriber
// whose Send fails is closed, removed and never retried.
type Subscriber interface {
	// ID uniquely identifies the connection.
	ID() string

	// Send writes one UTF-8 JSON text frame to the connection.
	Send(ctx context.Context, payload []byte) error

	// Close releases the connection.
	Close() error
}
