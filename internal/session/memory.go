package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the single-node fallback used when no Redis URL is
// configured, and the store used by tests.
type MemoryStore struct {
	mu    sync.RWMutex
	store map[string]memoryEntry
	ttl   time.Duration
	now   func() time.Time
}

type memoryEntry struct {
	checkout  Checkout
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		store: make(map[string]memoryEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *MemoryStore) Put(_ context.Context, c Checkout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store[c.Token] = memoryEntry{checkout: c, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (*Checkout, error) {
	s.mu.RLock()
	entry, ok := s.store[token]
	s.mu.RUnlock()
	if !ok || s.now().After(entry.expiresAt) {
		return nil, nil
	}
	c := entry.checkout
	return &c, nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.store, token)
	return nil
}
