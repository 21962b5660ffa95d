// Package lock defines the coordination contract that serializes conflicting
// operations on the same account (or account pair) across process instances.
package lock

import (
	"context"
	"time"
)

// Guard represents a held lock. Release must always be called, failure paths
// included; it is safe to call once per acquisition only.
type Guard interface {
	Release(ctx context.Context) error
}

// Coordinator provides named, timeout-bounded mutual exclusion.
//
// maxWait bounds how long the caller blocks waiting to acquire; hold bounds
// how long the lock may be held before forced expiry, protecting against
// crashed holders. Acquisition is not re-entrant: one critical section wraps
// one business operation.
type Coordinator interface {
	// Acquire returns a Guard for key, or domain.ErrLockTimeout when the lock
	// could not be acquired within maxWait.
	Acquire(ctx context.Context, key string, maxWait, hold time.Duration) (Guard, error)
}

// AccountKey derives the coordination key for a single-account operation.
func AccountKey(accountNumber string) string {
	return "account:" + accountNumber
}

// PairKey derives the compound coordination key for a two-account operation.
// The lexicographically smaller account number comes first, so transfers
// between the same pair submitted in opposite directions contend on the same
// key and serialize instead of deadlocking.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return AccountKey(a) + ":" + AccountKey(b)
}
