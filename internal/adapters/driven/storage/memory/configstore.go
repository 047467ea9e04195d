// Package memory provides in-memory implementations of the storage
// ports. Used in tests and when no data directory is configured.
package memory

import (
	"context"
	"sync"

	"github.com/tessera-labs/specsync/internal/core/domain"
	"github.com/tessera-labs/specsync/internal/core/ports/driven"
)

// Ensure SourceConfigStore implements the interface.
var _ driven.SourceConfigStore = (*SourceConfigStore)(nil)

// SourceConfigStore is an in-memory implementation of
// driven.SourceConfigStore.
type SourceConfigStore struct {
	mu      sync.RWMutex
	configs map[string]domain.SourceConfig
}

// NewSourceConfigStore creates a new in-memory source config store.
func NewSourceConfigStore() *SourceConfigStore {
	return &SourceConfigStore{
		configs: make(map[string]domain.SourceConfig),
	}
}

// Save stores or replaces the config for its SpecID.
func (s *SourceConfigStore) Save(_ context.Context, cfg domain.SourceConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[cfg.SpecID] = cfg
	return nil
}

// Get retrieves a config by spec ID.
func (s *SourceConfigStore) Get(_ context.Context, specID string) (*domain.SourceConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[specID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cfg, nil
}

// Delete removes a config.
func (s *SourceConfigStore) Delete(_ context.Context, specID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.configs, specID)
	return nil
}

// List returns all configured sources.
func (s *SourceConfigStore) List(_ context.Context) ([]domain.SourceConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.SourceConfig, 0, len(s.configs))
	for _, cfg := range s.configs {
		result = append(result, cfg)
	}
	return result, nil
}
