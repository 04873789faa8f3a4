package bucket

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"logdata/internal/ratelimit/models"
)

const keyPrefix = "logdata:ratelimit:"

// slidingWindowScript trims expired hits, then adds cost hits only if they fit.
// Returns {allowed, remaining, reset_ms}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local cost = tonumber(ARGV[4])
local member = ARGV[5]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count + cost > limit then
  local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
  local reset = now + window
  if oldest[2] then reset = tonumber(oldest[2]) + window end
  return {0, 0, reset}
end
for i = 1, cost do
  redis.call('ZADD', key, now, member .. ':' .. i)
end
redis.call('PEXPIRE', key, window)
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
return {1, limit - count - cost, tonumber(oldest[2]) + window}
`)

// RedisBucketStore shares sliding windows across replicas using sorted sets.
type RedisBucketStore struct {
	client redis.Scripter
	now    func() time.Time
}

func NewRedisBucketStore(client redis.Scripter) *RedisBucketStore {
	return &RedisBucketStore{client: client, now: time.Now}
}

func (s *RedisBucketStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	return s.AllowN(ctx, key, 1, limit, window)
}

func (s *RedisBucketStore) AllowN(ctx context.Context, key string, cost, limit int, window time.Duration) (*models.Result, error) {
	now := s.now()
	vals, err := slidingWindowScript.Run(ctx, s.client, []string{keyPrefix + key},
		now.UnixMilli(), window.Milliseconds(), limit, cost, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("redis sliding window: %w", err)
	}
	if len(vals) != 3 {
		return nil, fmt.Errorf("redis sliding window: unexpected reply %v", vals)
	}
	return models.NewResult(vals[0] == 1, limit, int(vals[1]), time.UnixMilli(vals[2]), now), nil
}
