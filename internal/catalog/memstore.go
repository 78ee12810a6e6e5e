package catalog

import (
	"context"
	"sync"
	"time"
)

type memRecord struct {
	entries   Entries
	fetchedAt time.Time
}

// MemoryStore keeps catalogs in process memory. Used by tests and --store=memory.
type MemoryStore struct {
	mu      sync.RWMutex
	data    map[Key]memRecord
	version *VersionRecord
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[Key]memRecord),
		now:  time.Now,
	}
}

// Load returns a copy of the stored entries
func (s *MemoryStore) Load(ctx context.Context, key Key) (Entries, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return copyEntries(rec.entries), true, nil
}

// Save stores a copy of entries
func (s *MemoryStore) Save(ctx context.Context, key Key, entries Entries) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = memRecord{entries: copyEntries(entries), fetchedAt: s.now()}
	return nil
}

// LastVersion returns the last saved version record
func (s *MemoryStore) LastVersion(ctx context.Context) (VersionRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.version == nil {
		return VersionRecord{}, false, nil
	}
	return *s.version, true, nil
}

// SaveLastVersion replaces the version record
func (s *MemoryStore) SaveLastVersion(ctx context.Context, rec VersionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version = &rec
	return nil
}

// Prune drops catalogs fetched before the given instant
func (s *MemoryStore) Prune(ctx context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, rec := range s.data {
		if rec.fetchedAt.Before(before) {
			delete(s.data, key)
			removed++
		}
	}
	return removed, nil
}

// Clear removes everything
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[Key]memRecord)
	s.version = nil
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

func copyEntries(in Entries) Entries {
	out := make(Entries, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
