// Package bucket implements sliding-window rate limit counters. The memory
// store serves single-instance deployments and the redis store distributed
// ones; the failover store composes the two behind a circuit breaker.
package bucket

import (
	"context"
	"sync"
	"time"

	"tombola/internal/ratelimit/models"
)

// InMemoryBucketStore implements Store using an in-memory sliding
// window. Not distributed; use RedisBucketStore when running more than one
// instance.
type InMemoryBucketStore struct {
	mu      sync.RWMutex
	buckets map[string]*slidingWindow
}

// slidingWindow tracks request timestamps. A sliding window, unlike fixed
// buckets, cannot be gamed by bursting at a boundary.
type slidingWindow struct {
	timestamps []time.Time
	window     time.Duration
}

// NewInMemoryBucketStore creates a new in-memory bucket store.
func NewInMemoryBucketStore() *InMemoryBucketStore {
	return &InMemoryBucketStore{
		buckets: make(map[string]*slidingWindow),
	}
}

// Allow checks if a request is allowed and increments the counter.
func (s *InMemoryBucketStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	return s.AllowN(ctx, key, 1, limit, window)
}

// AllowN checks if a request with custom cost is allowed, consuming 'cost'
// tokens when it is.
func (s *InMemoryBucketStore) AllowN(ctx context.Context, key string, cost, limit int, window time.Duration) (*models.RateLimitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cw := s.getOrCreateBucket(key, window)
	cw.cleanup(time.Now())
	count := len(cw.timestamps)

	if count+cost <= limit {
		now := time.Now()
		for range cost {
			cw.timestamps = append(cw.timestamps, now)
		}

		var resetAt time.Time
		if len(cw.timestamps) > 0 {
			resetAt = cw.timestamps[0].Add(window)
		} else {
			resetAt = now.Add(window)
		}

		return &models.RateLimitResult{
			Allowed:   true,
			Remaining: limit - len(cw.timestamps),
			ResetAt:   resetAt,
			Limit:     limit,
		}, nil
	}

	return &models.RateLimitResult{
		Allowed:   false,
		Remaining: 0,
		ResetAt:   time.Now().Add(window),
		Limit:     limit,
	}, nil
}

// Reset clears the rate limit counter for a key.
func (s *InMemoryBucketStore) Reset(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, key)
	return nil
}

// GetCurrentCount returns the current request count for a key. Expired
// entries are skipped rather than pruned so the read lock suffices.
func (s *InMemoryBucketStore) GetCurrentCount(ctx context.Context, key string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cw := s.buckets[key]
	if cw == nil {
		return 0, nil
	}

	cutoff := time.Now().Add(-cw.window)
	count := 0
	for _, ts := range cw.timestamps {
		if ts.After(cutoff) {
			count++
		}
	}
	return count, nil
}

// cleanup removes expired timestamps from a sliding window.
func (sw *slidingWindow) cleanup(now time.Time) {
	cutoff := now.Add(-sw.window)
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}

// getOrCreateBucket returns an existing bucket or creates a new one.
// Must be called while holding s.mu lock.
func (s *InMemoryBucketStore) getOrCreateBucket(key string, window time.Duration) *slidingWindow {
	if cw := s.buckets[key]; cw != nil {
		return cw
	}
	cw := &slidingWindow{timestamps: []time.Time{}, window: window}
	s.buckets[key] = cw
	return cw
}
