// Package lock provides the mutual exclusion that keeps two retention sweeps
// from running at the same time, in-process or across replicas.
package lock

import (
	"context"
	"time"
)

// ReleaseFunc gives up a held lock. Releasing twice is a no-op.
type ReleaseFunc func(ctx context.Context) error

// Locker acquires named, expiring locks without blocking.
type Locker interface {
	// TryAcquire attempts to take key for at most ttl. acquired is false when
	// another holder owns the lock; err reports backend failures only.
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (release ReleaseFunc, acquired bool, err error)
}
