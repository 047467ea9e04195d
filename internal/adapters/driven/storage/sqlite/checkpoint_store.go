package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tessera-labs/specsync/internal/core/domain"
	"github.com/tessera-labs/specsync/internal/core/ports/driven"
)

// checkpointStore implements driven.CheckpointStore.
type checkpointStore struct {
	store *Store
}

var _ driven.CheckpointStore = (*checkpointStore)(nil)

// GetLastCommit returns the persisted head for a spec.
func (s *checkpointStore) GetLastCommit(ctx context.Context, specID string) (string, error) {
	var commit string
	err := s.store.db.QueryRowContext(ctx,
		"SELECT last_commit FROM checkpoints WHERE spec_id = ?", specID).Scan(&commit)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying checkpoint: %w", err)
	}
	return commit, nil
}

// SaveLastCommit stores or replaces the head for a spec.
func (s *checkpointStore) SaveLastCommit(ctx context.Context, specID, commit string) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO checkpoints (spec_id, last_commit, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(spec_id) DO UPDATE SET
			last_commit = excluded.last_commit,
			updated_at = excluded.updated_at
	`, specID, commit)
	if err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}
	return nil
}

// DeleteCheckpoint removes the checkpoint for a spec.
func (s *checkpointStore) DeleteCheckpoint(ctx context.Context, specID string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM checkpoints WHERE spec_id = ?", specID)
	if err != nil {
		return fmt.Errorf("deleting checkpoint: %w", err)
	}
	return nil
}
