package cache

import (
	"context"
	"sync"
	"time"

	"github.com/amirasaad/banking/pkg/domain"
)

type memoryEntry struct {
	account   domain.Account
	expiresAt time.Time
}

// MemoryAccountCache is an in-process account cache with per-entry TTL. It
// backs single-node runs and tests where Redis is not available.
type MemoryAccountCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

// NewMemoryAccountCache creates an empty in-process cache.
func NewMemoryAccountCache(ttl time.Duration) *MemoryAccountCache {
	return &MemoryAccountCache{entries: make(map[string]memoryEntry), ttl: ttl}
}

// Get returns the cached account, or (nil, false) on a miss or expiry.
func (c *MemoryAccountCache) Get(ctx context.Context, number string) (*domain.Account, bool) {
	c.mu.RLock()
	entry, ok := c.entries[number]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	acct := entry.account
	return &acct, true
}

// Set stores the account snapshot.
func (c *MemoryAccountCache) Set(ctx context.Context, account *domain.Account) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[account.Number] = memoryEntry{
		account:   *account,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Evict drops the cached snapshot for the account.
func (c *MemoryAccountCache) Evict(ctx context.Context, number string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, number)
}
