package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryIdempotencyStore is an in-memory IdempotencyStore for tests and
// local runs.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	checkoutID string
	expiresAt  time.Time
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryIdempotencyStore) Claim(ctx context.Context, key, checkoutID string, ttl time.Duration) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if entry, exists := s.entries[key]; exists && entry.expiresAt.After(now) {
		return entry.checkoutID, false, nil
	}

	s.entries[key] = memoryEntry{checkoutID: checkoutID, expiresAt: now.Add(ttl)}
	return "", true, nil
}
