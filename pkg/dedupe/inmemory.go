package dedupe

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is a thread-safe, process-local marker store. It covers the
// single-consumer deployment; a crash loses the markers, which degrades the
// guard back to the queue's own at-least-once semantics.
type InMemoryStore struct {
	mu   sync.RWMutex
	seen map[string]time.Time
	ttl  time.Duration
}

// NewInMemoryStore creates an in-memory marker store retaining markers for ttl.
func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	return &InMemoryStore{
		seen: make(map[string]time.Time),
		ttl:  ttl,
	}
}

// Seen reports whether the ID was marked within the retention window.
func (s *InMemoryStore) Seen(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	markedAt, ok := s.seen[id]
	if !ok {
		return false, nil
	}
	return time.Since(markedAt) < s.ttl, nil
}

// Mark records the ID and prunes expired markers while holding the lock.
func (s *InMemoryStore) Mark(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, markedAt := range s.seen {
		if now.Sub(markedAt) >= s.ttl {
			delete(s.seen, key)
		}
	}
	s.seen[id] = now
	return nil
}
