package driving

import (
	"context"

	"github.com/tessera-labs/specsync/internal/core/domain"
	"github.com/tessera-labs/specsync/internal/core/ports/driven"
)

// ChangeListener is invoked with every broadcast change event.
// Listeners may block; a listener error (or panic) is logged and does
// not prevent delivery to the remaining listeners.
type ChangeListener func(ctx context.Context, ev domain.ChangeEvent) error

// SyncOrchestrator is the single entry point for real-time
// specification change monitoring. It owns one monitor per registered
// source and fans detected changes out to listeners and subscribers.
type SyncOrchestrator interface {
	// RegisterSource adds or replaces a monitored source. Idempotent
	// per SpecID. Returns domain.ErrInvalidConfig for unrecognised
	// source types. If monitoring is running, the source starts (or
	// restarts) immediately.
	RegisterSource(ctx context.Context, cfg domain.SourceConfig) error

	// AddChangeListener registers a callback invoked with each event.
	AddChangeListener(fn ChangeListener)

	// Start begins monitoring all enabled sources. Idempotent.
	Start(ctx context.Context) error

	// Stop halts monitoring. In-flight polls complete before their
	// goroutines exit. Idempotent.
	Stop() error

	// SubmitWebhook processes an inbound provider payload
	// synchronously. Returns true if the payload matched the expected
	// shape; a malformed payload emits no events and returns false.
	SubmitWebhook(ctx context.Context, payload []byte, specID string) bool

	// AcceptSubscriber registers a streaming connection for event
	// delivery until its first failed write.
	AcceptSubscriber(sub driven.Subscriber)

	// Emit broadcasts a caller-built event directly, bypassing all
	// monitors. Used for manual change injection.
	Emit(ctx context.Context, ev domain.ChangeEvent)
}
