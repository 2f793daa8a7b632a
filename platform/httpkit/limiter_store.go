package httpkit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// timedLimiterStore keeps one rate limiter per client IP and evicts entries
// that have been idle long enough to be fully replenished.
type timedLimiterStore struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const limiterIdleEviction = 10 * time.Minute

func newTimedLimiterStore() *timedLimiterStore {
	s := &timedLimiterStore{entries: make(map[string]*limiterEntry)}
	go s.evictLoop()
	return s
}

func (s *timedLimiterStore) get(key string, r rate.Limit, burst int) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(r, burst)}
		s.entries[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

func (s *timedLimiterStore) evictLoop() {
	ticker := time.NewTicker(limiterIdleEviction)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-limiterIdleEviction)
		s.mu.Lock()
		for key, entry := range s.entries {
			if entry.lastSeen.Before(cutoff) {
				delete(s.entries, key)
			}
		}
		s.mu.Unlock()
	}
}
