package conversation

import (
	"context"
	"errors"
	"time"
)

// ErrLockHeld is returned when a conversation lock could not be acquired
// within the caller's retry budget.
var ErrLockHeld = errors.New("conversation lock held")

// StateRepository persists per-conversation dialog state. Implementations
// must provide atomic compare-and-set semantics so that multiple process
// instances can share one store.
type StateRepository interface {
	// Get returns the current state and its version. An unknown
	// conversation yields Initial() with version 0.
	Get(ctx context.Context, chatID int64) (State, int64, error)

	// CompareAndSet writes state only if the stored version still equals
	// expected. Returns false on a version conflict.
	CompareAndSet(ctx context.Context, chatID int64, state State, expected int64) (bool, error)

	// Put writes state unconditionally (last writer wins).
	Put(ctx context.Context, chatID int64, state State) error

	// Reset returns the conversation to Initial, discarding all fields.
	Reset(ctx context.Context, chatID int64) error
}

// LockRepository provides per-conversation mutual exclusion with a
// time-bounded lease. A lock whose age exceeds the lease TTL may be
// reclaimed by any caller; release with a stale token is a no-op.
type LockRepository interface {
	// TryAcquire attempts a single acquisition. ok is false when another
	// holder owns a live lease.
	TryAcquire(ctx context.Context, chatID int64, ttl time.Duration) (token string, ok bool, err error)

	// Release frees the lock if token still identifies the current holder.
	Release(ctx context.Context, chatID int64, token string) error
}
