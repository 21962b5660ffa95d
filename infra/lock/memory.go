package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amirasaad/banking/pkg/domain"
	"github.com/amirasaad/banking/pkg/lock"
)

// MemoryCoordinator serializes access per key within a single process. It
// honors the same Acquire contract as the Redis coordinator, which lets the
// engine run against it unchanged in tests and single-node deployments.
type MemoryCoordinator struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewMemoryCoordinator creates an empty in-process coordinator.
func NewMemoryCoordinator() *MemoryCoordinator {
	return &MemoryCoordinator{locks: make(map[string]chan struct{})}
}

func (c *MemoryCoordinator) slot(key string) chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		c.locks[key] = ch
	}
	return ch
}

// Acquire waits up to maxWait for the key's slot. hold is ignored: an
// in-process holder cannot crash without taking the process with it.
func (c *MemoryCoordinator) Acquire(
	ctx context.Context,
	key string,
	maxWait, hold time.Duration,
) (lock.Guard, error) {
	ch := c.slot(key)

	timer := time.NewTimer(maxWait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return &memoryGuard{ch: ch}, nil
	case <-timer.C:
		return nil, fmt.Errorf("lock %s: %w", key, domain.ErrLockTimeout)
	case <-ctx.Done():
		return nil, fmt.Errorf("lock %s: %w", key, ctx.Err())
	}
}

var _ lock.Coordinator = (*MemoryCoordinator)(nil)

type memoryGuard struct {
	ch chan struct{}
}

func (g *memoryGuard) Release(ctx context.Context) error {
	<-g.ch
	return nil
}
