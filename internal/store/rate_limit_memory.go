package store

import (
	"context"
	"errors"
	"sync"
	"time"
)

// memoryPurgeThreshold is the number of tracked keys above which idle keys
// are dropped.
const memoryPurgeThreshold = 10000

// memoryRateLimitStore is a single-process [RateLimitStore] used when no
// Redis is configured.
type memoryRateLimitStore struct {
	mu   sync.Mutex
	hits map[string][]time.Time
}

// NewMemoryRateLimitStore constructs an in-process [RateLimitStore].
func NewMemoryRateLimitStore() RateLimitStore {
	return &memoryRateLimitStore{hits: make(map[string][]time.Time)}
}

func (s *memoryRateLimitStore) Allow(_ context.Context, key string, limit int, window time.Duration, now time.Time) (bool, time.Duration, error) {
	if window <= 0 || limit <= 0 {
		return false, 0, errors.New("limit and window must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	threshold := now.Add(-window)
	if len(s.hits) > memoryPurgeThreshold {
		s.purge(threshold)
	}
	hits := s.hits[key]

	// hits are appended in time order, so the expired ones form a prefix
	kept := 0
	for kept < len(hits) && !hits[kept].After(threshold) {
		kept++
	}
	hits = hits[kept:]

	if len(hits) >= limit {
		s.hits[key] = hits
		return false, hits[0].Add(window).Sub(now), nil
	}

	hits = append(hits, now)
	s.hits[key] = hits

	return true, 0, nil
}

// purge drops keys whose latest hit is not after threshold.
func (s *memoryRateLimitStore) purge(threshold time.Time) {
	for key, hits := range s.hits {
		if len(hits) == 0 || !hits[len(hits)-1].After(threshold) {
			delete(s.hits, key)
		}
	}
}
