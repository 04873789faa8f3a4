// Package bucket stores sliding-window request counters.
package bucket

import (
	"context"
	"sync"
	"time"

	"logdata/internal/ratelimit/models"
)

// InMemoryBucketStore keeps one sliding window per key in process memory.
// Counts are per process; use RedisBucketStore to share them across replicas.
type InMemoryBucketStore struct {
	mu      sync.Mutex
	buckets map[string]*slidingWindow
	now     func() time.Time
}

type slidingWindow struct {
	timestamps []time.Time
	window     time.Duration
}

// tryConsume records cost hits if they fit under limit.
func (sw *slidingWindow) tryConsume(cost, limit int, now time.Time) (allowed bool, remaining int, resetAt time.Time) {
	sw.cleanupExpired(now)

	if len(sw.timestamps)+cost > limit {
		resetAt = now.Add(sw.window)
		if len(sw.timestamps) > 0 {
			resetAt = sw.timestamps[0].Add(sw.window)
		}
		return false, 0, resetAt
	}
	for range cost {
		sw.timestamps = append(sw.timestamps, now)
	}
	return true, limit - len(sw.timestamps), sw.timestamps[0].Add(sw.window)
}

func (sw *slidingWindow) cleanupExpired(now time.Time) {
	cutoff := now.Add(-sw.window)
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}

func NewInMemoryBucketStore() *InMemoryBucketStore {
	return &InMemoryBucketStore{
		buckets: make(map[string]*slidingWindow),
		now:     time.Now,
	}
}

func (s *InMemoryBucketStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	return s.AllowN(ctx, key, 1, limit, window)
}

func (s *InMemoryBucketStore) AllowN(_ context.Context, key string, cost, limit int, window time.Duration) (*models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.buckets[key]
	if !ok || bucket.window != window {
		bucket = &slidingWindow{window: window}
		s.buckets[key] = bucket
	}
	now := s.now()
	allowed, remaining, resetAt := bucket.tryConsume(cost, limit, now)
	if len(bucket.timestamps) == 0 {
		delete(s.buckets, key)
	}
	return models.NewResult(allowed, limit, remaining, resetAt, now), nil
}

func (s *InMemoryBucketStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, key)
	return nil
}
