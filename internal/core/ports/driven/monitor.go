package driven

import (
	"context"

	"github.com/tessera-labs/specsync/internal/core/domain"
)

// GitMonitor polls a remote branch head and diffs commits.
// One monitor instance watches one repository; its commit state is
// mutated only from the orchestrator's poll goroutine for that source.
type GitMonitor interface {
	// Check resolves the current remote head and returns the change
	// events since the last known commit, in diff order. Returns
	// domain.ErrSourceUnavailable (wrapped) if the remote cannot be
	// resolved; the caller retries on the next interval.
	Check(ctx context.Context) ([]domain.ChangeEvent, error)

	// LastCommit returns the last successfully diffed head, or ""
	// before the first successful poll.
	LastCommit() string

	// SetLastCommit seeds the commit state, typically from a
	// persisted checkpoint.
	SetLastCommit(commit string)
}

// FileMonitor watches a directory tree and emits one event per
// filesystem notification passing the spec-file predicate.
type FileMonitor interface {
	// Events returns the channel of detected changes. The channel is
	// closed when the monitor is closed.
	Events() <-chan domain.ChangeEvent

	// Close stops the underlying watcher and releases its goroutine.
	Close() error
}

// MonitorFactory builds monitors from source configurations.
// The orchestrator never constructs monitors directly so that tests
// can substitute fakes.
type MonitorFactory interface {
	NewGitMonitor(cfg domain.SourceConfig) GitMonitor
	NewFileMonitor(cfg domain.SourceConfig) (FileMonitor, error)
}

// WebhookIngester converts a raw provider push payload into change
// events for the given spec. The boolean reports whether the payload
// matched the expected shape; a malformed payload yields no events
// and false, never an error.
type WebhookIngester interface {
	Ingest(raw []byte, specID string) ([]domain.ChangeEvent, bool)
}
