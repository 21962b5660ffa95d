// Package lock provides the lock.Coordinator implementations: a Redis-backed
// coordinator for multi-instance deployments and an in-process coordinator
// for single-node runs and tests.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/banking/pkg/domain"
	"github.com/amirasaad/banking/pkg/lock"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// acquireRetryDelay is the pause between acquisition attempts while waiting
// for a contended lock.
const acquireRetryDelay = 100 * time.Millisecond

// RedisCoordinator acquires distributed locks through the RedLock algorithm,
// which keeps mutual exclusion intact across service instances.
type RedisCoordinator struct {
	rs        *redsync.Redsync
	keyPrefix string
	logger    *slog.Logger
}

// NewRedisCoordinator creates a coordinator on top of an existing Redis
// client. keyPrefix namespaces lock keys so several environments can share
// one Redis.
func NewRedisCoordinator(
	client redis.UniversalClient,
	keyPrefix string,
	logger *slog.Logger,
) *RedisCoordinator {
	return &RedisCoordinator{
		rs:        redsync.New(goredis.NewPool(client)),
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

// Acquire blocks until the lock is granted or maxWait elapses. The lock
// auto-expires after hold so a crashed holder cannot wedge an account
// forever.
func (c *RedisCoordinator) Acquire(
	ctx context.Context,
	key string,
	maxWait, hold time.Duration,
) (lock.Guard, error) {
	tries := int(maxWait/acquireRetryDelay) + 1
	mutex := c.rs.NewMutex(
		c.keyPrefix+key,
		redsync.WithExpiry(hold),
		redsync.WithTries(tries),
		redsync.WithRetryDelay(acquireRetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		if errors.Is(err, redsync.ErrFailed) {
			return nil, fmt.Errorf("lock %s: %w", key, domain.ErrLockTimeout)
		}
		return nil, fmt.Errorf("lock %s: %w", key, err)
	}

	c.logger.Debug("lock acquired", "key", key, "hold", hold)

	return &redisGuard{mutex: mutex, key: key, logger: c.logger}, nil
}

var _ lock.Coordinator = (*RedisCoordinator)(nil)

type redisGuard struct {
	mutex  *redsync.Mutex
	key    string
	logger *slog.Logger
}

func (g *redisGuard) Release(ctx context.Context) error {
	ok, err := g.mutex.UnlockContext(ctx)
	if err != nil {
		return fmt.Errorf("unlock %s: %w", g.key, err)
	}
	if !ok {
		// The lease expired before we released it. The work already
		// committed, so there is nothing to undo.
		g.logger.Warn("lock already expired on release", "key", g.key)
	}
	return nil
}
