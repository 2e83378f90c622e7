// Package lock provides the per-conversation mutual exclusion used by the
// execution engine. Every entry to the run loop (start, resume, timer
// firing) must hold the conversation lock before mutating the execution row.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotHeld is returned when releasing a lock the caller does not own.
var ErrNotHeld = errors.New("lock not held")

// Manager acquires short-leased locks keyed by conversation. Acquire returns
// false without error when the lock is currently held by someone else; the
// engine surfaces that as contention, it never queues.
type Manager interface {
	Acquire(ctx context.Context, key string, lease time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
