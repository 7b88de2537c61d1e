package prefs

import (
	"context"
	"sync"
	"time"
)

// MemStore is a map-backed Store for tests and ephemeral sessions.
type MemStore struct {
	mu    sync.Mutex
	items map[string]memEntry
}

type memEntry struct {
	value   string
	expires time.Time
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{items: map[string]memEntry{}}
}

func (s *MemStore) Get(_ context.Context, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[key]
	if !ok || time.Now().After(entry.expires) {
		return "", false
	}
	return entry.value, true
}

func (s *MemStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = memEntry{value: value, expires: time.Now().Add(ttl)}
	return nil
}
