package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates session access across bot replicas sharing one store.
type DistributedLocker interface {
	// Lock acquires a lock for the given key (a conversant ID).
	// It blocks until the lock is acquired or the context is canceled; the
	// lock expires on its own after ttl.
	// Returns an UnlockFunc that MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
