// Package presence provides a TTL-bounded cache and batch-chunked fetch
// layer in front of the directory service's rate-limited live-status
// endpoint.
package presence

import (
	"context"
	"sync"
	"time"

	"github.com/lumahq/roster/pkg/directory"
)

// Entry is a cached presence snapshot with its capture timestamp.
type Entry struct {
	Presence  directory.Presence `json:"presence"`
	FetchedAt time.Time          `json:"fetched_at"`
}

// Store is the backing storage for cached presence entries, keyed by
// directory identifier. Staleness is decided by the Cache, not the store;
// a store may additionally evict on its own (Redis TTL).
type Store interface {
	// Get returns the entry for id, or ok=false when absent.
	Get(ctx context.Context, id string) (Entry, bool, error)

	// Set writes an entry for id.
	Set(ctx context.Context, id string, entry Entry) error

	// Clear removes all entries. Called on session teardown.
	Clear(ctx context.Context) error
}

// MemoryStore is an in-process Store guarded by a mutex.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	return entry, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, id string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = entry
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry)
	return nil
}
