package directory

import (
	"context"
	"sync"
	"time"
)

// Entry is a cached provider list with its fetch timestamp.
type Entry struct {
	Records   ProviderList
	FetchedAt time.Time
}

// Fresh reports whether the entry is within ttl of now.
func (e *Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.FetchedAt) < ttl
}

// memoryCache is the first cache tier: the last fetched list, held for the
// lifetime of the process. A stale entry is never evicted; it remains
// available as a fallback after failed fetches.
type memoryCache struct {
	mu    sync.RWMutex
	entry *Entry
}

func (c *memoryCache) get() *Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entry
}

func (c *memoryCache) set(e *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = e
}

// Snapshot is the persisted form of a cache entry. The second tier survives
// process restarts (when backed by a database) so a redeploy does not lose
// the last known dataset.
type Snapshot struct {
	Records   ProviderList `json:"data"`
	FetchedAt time.Time    `json:"timestamp"`
}

// Fresh reports whether the snapshot is within ttl of now. Both cache tiers
// share one TTL value.
func (s *Snapshot) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.FetchedAt) < ttl
}

// SnapshotStore is the second cache tier. Implementations must tolerate
// concurrent use. Load returns (nil, nil) when no snapshot exists.
type SnapshotStore interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (*Snapshot, error)
}

// MemorySnapshotStore keeps the snapshot in process memory. It is the
// default tier when no database is configured, and the test double for
// stores that are.
type MemorySnapshotStore struct {
	mu   sync.RWMutex
	snap *Snapshot
}

// NewMemorySnapshotStore creates an empty MemorySnapshotStore.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{}
}

// Save stores a copy of the snapshot.
func (s *MemorySnapshotStore) Save(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = &snap
	return nil
}

// Load returns the stored snapshot, or (nil, nil) when none exists.
func (s *MemorySnapshotStore) Load(_ context.Context) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return nil, nil
	}
	snap := *s.snap
	return &snap, nil
}
