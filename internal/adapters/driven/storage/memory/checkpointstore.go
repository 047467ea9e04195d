package memory

import (
	"context"
	"sync"

	"github.com/tessera-labs/specsync/internal/core/domain"
	"github.com/tessera-labs/specsync/internal/core/ports/driven"
)

// Ensure CheckpointStore implements the interface.
var _ driven.CheckpointStore = (*CheckpointStore)(nil)

// CheckpointStore is an in-memory implementation of
// driven.CheckpointStore. Commit state held here does not survive a
// restart; use the sqlite store for durable checkpoints.
type CheckpointStore struct {
	mu      sync.RWMutex
	commits map[string]string
}

// NewCheckpointStore creates a new in-memory checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{
		commits: make(map[string]string),
	}
}

// GetLastCommit returns the recorded head for a spec.
func (s *CheckpointStore) GetLastCommit(_ context.Context, specID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	commit, ok := s.commits[specID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return commit, nil
}

// SaveLastCommit stores or replaces the head for a spec.
func (s *CheckpointStore) SaveLastCommit(_ context.Context, specID, commit string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commits[specID] = commit
	return nil
}

// DeleteCheckpoint removes the checkpoint for a spec.
func (s *CheckpointStore) DeleteCheckpoint(_ context.Context, specID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.commits, specID)
	return nil
}
