// Package cache provides a small Redis-backed cache for generated image
// URLs. Image generation is the slowest and most expensive outbound call in
// the system, so identical prompts within the TTL window are served from
// Redis instead.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// DefaultTTL is how long a cached image URL stays valid.
const DefaultTTL = 24 * time.Hour

// RedisCache stores string values with a fixed TTL. Failures are logged and
// treated as misses; the cache is an optimization, never a dependency.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

// Get returns the cached value and whether it was present.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warnf("[cache] get %s: %v", key, err)
		}
		return "", false
	}
	return val, true
}

// Set stores a value under the cache TTL.
func (c *RedisCache) Set(ctx context.Context, key, value string) {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		log.Warnf("[cache] set %s: %v", key, err)
	}
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
