package ratelimit

import (
	"context"
	"sync"
	"time"
)

const sweepThreshold = 10000

type window struct {
	count   int64
	resetAt time.Time
}

// MemoryStore keeps counters in a process-local map. Limits are not shared
// between instances.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) IncrWithTTL(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if len(s.windows) > sweepThreshold {
		s.sweep(now)
	}

	w, ok := s.windows[key]
	if !ok || now.After(w.resetAt) {
		s.windows[key] = &window{count: 1, resetAt: now.Add(ttl)}
		return 1, nil
	}
	w.count++
	return w.count, nil
}

func (s *MemoryStore) sweep(now time.Time) {
	for key, w := range s.windows {
		if now.After(w.resetAt) {
			delete(s.windows, key)
		}
	}
}
