package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker defines the interface for concurrency control across
// calls and, when backed by a shared store, across processes.
type DistributedLocker interface {
	// Lock blocks until the lock for key is acquired or ctx is done.
	// The lock is released by the returned UnlockFunc, or by the
	// implementation once ttl elapses.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
