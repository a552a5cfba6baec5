package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps attempts in process memory. Keys with no attempt inside
// the window are dropped by Sweep.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu      sync.Mutex
	hits    []time.Time
	removed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*entry)}
}

func (s *MemoryStore) Admit(_ context.Context, key string, now time.Time, window time.Duration, limit int) (bool, error) {
	for {
		e := s.get(key)
		e.mu.Lock()
		if e.removed {
			// swept between lookup and lock
			e.mu.Unlock()
			continue
		}
		e.hits = prune(e.hits, now, window)
		if len(e.hits) >= limit {
			e.mu.Unlock()
			return false, nil
		}
		e.hits = append(e.hits, now)
		e.mu.Unlock()
		return true, nil
	}
}

func (s *MemoryStore) get(key string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	return e
}

// Sweep removes keys whose attempts all fell out of the window.
func (s *MemoryStore) Sweep(now time.Time, window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		e.mu.Lock()
		e.hits = prune(e.hits, now, window)
		if len(e.hits) == 0 {
			e.removed = true
			delete(s.entries, key)
			removed++
		}
		e.mu.Unlock()
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *MemoryStore) Run(ctx context.Context, interval, window time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(now, window)
		}
	}
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func prune(hits []time.Time, now time.Time, window time.Duration) []time.Time {
	cutoff := now.Add(-window)
	kept := hits[:0]
	for _, ts := range hits {
		if !ts.Before(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}
