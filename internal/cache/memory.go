package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	fragment  Fragment
	expiresAt time.Time
}

// MemoryCache is the FragmentCache used when no Redis is configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) (*Fragment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, ErrCacheMiss
	}
	fragment := entry.fragment
	return &fragment, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, fragment *Fragment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	// drop expired entries so a long session does not keep every revision
	for k, entry := range m.entries {
		if now.After(entry.expiresAt) {
			delete(m.entries, k)
		}
	}
	m.entries[key] = memoryEntry{fragment: *fragment, expiresAt: now.Add(m.ttl)}
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
