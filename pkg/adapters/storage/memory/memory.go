package memory

import (
	"context"
	"sync"

	"github.com/aescanero/plexo/pkg/plugin"
)

// ResultStore implements ports.ResultStore with a mutex-guarded map.
// This is the default backend; the registry survives across
// orchestration runs for the lifetime of the process.
type ResultStore struct {
	mu      sync.Mutex
	entries map[string]plugin.ResultEntry
}

// NewResultStore creates an empty in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{entries: make(map[string]plugin.ResultEntry)}
}

// Register writes the payload merged with the plugin's static info
// under name. The lock covers lookup plus write, so concurrent
// registrations are serialized and never interleave. An empty name is
// a silent no-op.
func (s *ResultStore) Register(ctx context.Context, name string, payload any, info plugin.Info) error {
	if name == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[name] = plugin.ResultEntry{Results: payload, Info: info}
	return nil
}

// All returns a snapshot copy of every registered entry.
func (s *ResultStore) All(ctx context.Context) (map[string]plugin.ResultEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[string]plugin.ResultEntry, len(s.entries))
	for name, entry := range s.entries {
		snapshot[name] = entry
	}
	return snapshot, nil
}

// Count returns the number of registered entries.
func (s *ResultStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries), nil
}

// Reset clears every entry.
func (s *ResultStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]plugin.ResultEntry)
	return nil
}
