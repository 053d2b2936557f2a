package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// MemoryStore keeps counters in process memory. Expired windows are swept
// periodically until Stop is called.
type MemoryStore struct {
	mu          sync.Mutex
	windows     map[string]*window
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewMemoryStore starts a store that sweeps expired windows every cleanupInterval.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}
	s := &MemoryStore{
		windows:     make(map[string]*window),
		stopCleanup: make(chan struct{}),
	}
	go s.cleanupLoop(cleanupInterval)
	return s
}

func (s *MemoryStore) Increment(_ context.Context, key string, length time.Duration, now time.Time) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || w.resetAt.Before(now) {
		w = &window{resetAt: now.Add(length)}
		s.windows[key] = w
	}
	w.count++
	return w.count, w.resetAt, nil
}

// Stop stops the background cleanup goroutine.
func (s *MemoryStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCleanup) })
}

func (s *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			s.cleanup(now)
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *MemoryStore) cleanup(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, w := range s.windows {
		if w.resetAt.Before(now) {
			delete(s.windows, key)
		}
	}
}

func (s *MemoryStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}
