package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danmiller22/botfarm/internal/domain/conversation"
)

type lockEntry struct {
	token      string
	acquiredAt time.Time
}

// LockRepository implements conversation.LockRepository with lease
// semantics: an expired lease is silently reclaimed by the next acquirer.
type LockRepository struct {
	mu    sync.Mutex
	locks map[int64]lockEntry

	// now is swappable in tests to simulate lease aging.
	now func() time.Time
}

func NewLockRepository() *LockRepository {
	return &LockRepository{
		locks: make(map[int64]lockEntry),
		now:   time.Now,
	}
}

// WithClock substitutes the time source. Test helper.
func (r *LockRepository) WithClock(now func() time.Time) *LockRepository {
	r.now = now
	return r
}

func (r *LockRepository) TryAcquire(_ context.Context, chatID int64, ttl time.Duration) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if cur, ok := r.locks[chatID]; ok && now.Sub(cur.acquiredAt) <= ttl {
		return "", false, nil
	}
	token := uuid.NewString()
	r.locks[chatID] = lockEntry{token: token, acquiredAt: now}
	return token, true, nil
}

func (r *LockRepository) Release(_ context.Context, chatID int64, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.locks[chatID]; ok && cur.token == token {
		delete(r.locks, chatID)
	}
	return nil
}

var _ conversation.LockRepository = (*LockRepository)(nil)
