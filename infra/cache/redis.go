// Package cache provides the Redis-backed account cache and the listener
// that evicts entries when transaction events are published.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/amirasaad/banking/pkg/domain"
	"github.com/redis/go-redis/v9"
)

// RedisAccountCache caches account snapshots in Redis. Every failure is
// logged and treated as a miss so the store stays the source of truth.
type RedisAccountCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisAccountCache creates a cache on top of an existing Redis client.
// prefix namespaces keys; ttl bounds staleness between evictions.
func NewRedisAccountCache(
	client redis.UniversalClient,
	prefix string,
	ttl time.Duration,
	logger *slog.Logger,
) *RedisAccountCache {
	return &RedisAccountCache{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

func (c *RedisAccountCache) key(number string) string {
	return c.prefix + "account:" + number
}

// Get returns the cached account, or (nil, false) on a miss or cache error.
func (c *RedisAccountCache) Get(ctx context.Context, number string) (*domain.Account, bool) {
	val, err := c.client.Get(ctx, c.key(number)).Result()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("cache miss", "account", number)
		return nil, false
	}
	if err != nil {
		c.logger.Error("cache get failed", "account", number, "error", err)
		return nil, false
	}
	var acct domain.Account
	if err := json.Unmarshal([]byte(val), &acct); err != nil {
		c.logger.Error("cache unmarshal failed", "account", number, "error", err)
		return nil, false
	}
	return &acct, true
}

// Set stores the account snapshot with the configured TTL.
func (c *RedisAccountCache) Set(ctx context.Context, account *domain.Account) {
	data, err := json.Marshal(account)
	if err != nil {
		c.logger.Error("cache marshal failed", "account", account.Number, "error", err)
		return
	}
	if err := c.client.Set(ctx, c.key(account.Number), data, c.ttl).Err(); err != nil {
		c.logger.Error("cache set failed", "account", account.Number, "error", err)
	}
}

// Evict drops the cached snapshot for the account.
func (c *RedisAccountCache) Evict(ctx context.Context, number string) {
	if err := c.client.Del(ctx, c.key(number)).Err(); err != nil {
		c.logger.Error("cache evict failed", "account", number, "error", err)
	}
}
