package tagcache

import (
	"context"
	"sync"
	"time"

	"github.com/ewilliams-labs/moodmatch/internal/core/ports"
)

type memoryEntry struct {
	tags    []string
	expires time.Time
}

// MemoryStore is an in-process TagStore with per-entry expiry.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

var _ ports.TagStore = (*MemoryStore)(nil)

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, artistName string) ([]string, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[artistName]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(entry.expires) {
		m.mu.Lock()
		if cur, still := m.entries[artistName]; still && cur.expires.Equal(entry.expires) {
			delete(m.entries, artistName)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	return append([]string{}, entry.tags...), true, nil
}

func (m *MemoryStore) Set(_ context.Context, artistName string, tags []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[artistName] = memoryEntry{
		tags:    append([]string{}, tags...),
		expires: m.now().Add(m.ttl),
	}
	return nil
}

// Len counts entries, expired ones included until they are next read.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
