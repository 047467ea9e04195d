package driven

import (
	"context"

	"github.com/tessera-labs/specsync/internal/core/domain"
)

// SourceConfigStore persists registered source configurations.
type SourceConfigStore interface {
	// Save stores or replaces the config for its SpecID.
	Save(ctx context.Context, cfg domain.SourceConfig) error

	// Get retrieves a config by spec ID.
	// Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, specID string) (*domain.SourceConfig, error)

	// Delete removes a config.
	Delete(ctx context.Context, specID string) error

	// List returns all configured sources.
	List(ctx context.Context) ([]domain.SourceConfig, error)
}

// CheckpointStore persists the last known commit per git source so a
// restarted orchestrator resumes diffing instead of re-baselining.
type CheckpointStore interface {
	// GetLastCommit returns the persisted head for a spec.
	// Returns domain.ErrNotFound if no checkpoint exists.
	GetLastCommit(ctx context.Context, specID string) (string, error)

	// SaveLastCommit stores or replaces the head for a spec.
	SaveLastCommit(ctx context.Context, specID, commit string) error

	// DeleteCheckpoint removes the checkpoint for a spec.
	DeleteCheckpoint(ctx context.Context, specID string) error
}

// EventJournal records broadcast events for inspection and replay.
type EventJournal interface {
	// Append records one event.
	Append(ctx context.Context, ev domain.ChangeEvent) error

	// Recent returns up to limit events, newest first.
	Recent(ctx context.Context, limit int) ([]domain.ChangeEvent, error)
}
