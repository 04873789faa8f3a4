// Package keycache caches tenant public keys in Redis in front of the tenant directory.
package keycache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"logdata/pkg/platform/sentinel"
)

const redisKeyPrefix = "logdata:tenant_key:"

// RedisCache stores public key text per tenant name with TTL eviction.
type RedisCache struct {
	client   redis.Cmdable
	cacheTTL time.Duration
}

// NewRedisCache constructs a Redis-backed key cache.
func NewRedisCache(client redis.Cmdable, cacheTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:   client,
		cacheTTL: cacheTTL,
	}
}

// Get returns the cached key text, or sentinel.ErrNotFound on a miss.
func (c *RedisCache) Get(ctx context.Context, tenantName string) (string, error) {
	text, err := c.client.Get(ctx, redisKeyPrefix+tenantName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", sentinel.ErrNotFound
		}
		return "", fmt.Errorf("find public key cache: %w", err)
	}
	return text, nil
}

// Set overwrites the cached key text for the tenant.
func (c *RedisCache) Set(ctx context.Context, tenantName, publicKey string) error {
	if err := c.client.Set(ctx, redisKeyPrefix+tenantName, publicKey, c.cacheTTL).Err(); err != nil {
		return fmt.Errorf("save public key cache: %w", err)
	}
	return nil
}
