package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/danmiller22/botfarm/internal/domain/conversation"
)

// LockRepository implements conversation.LockRepository as one conditional
// upsert per acquisition attempt: the row is taken when absent or when the
// previous holder's lease has aged out. The database clock is the only
// clock, so lease age is judged consistently across process instances.
type LockRepository struct {
	pool *pgxpool.Pool
}

func NewLockRepository(pool *pgxpool.Pool) *LockRepository {
	return &LockRepository{pool: pool}
}

func (r *LockRepository) TryAcquire(ctx context.Context, chatID int64, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO conversation_locks (chat_id, token, acquired_at)
		VALUES ($1, $2, now())
		ON CONFLICT (chat_id) DO UPDATE
		SET token=EXCLUDED.token, acquired_at=now()
		WHERE conversation_locks.acquired_at < now() - make_interval(secs => $3)
	`, chatID, token, ttl.Seconds())
	if err != nil {
		return "", false, fmt.Errorf("acquire lock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return "", false, nil
	}
	return token, true, nil
}

func (r *LockRepository) Release(ctx context.Context, chatID int64, token string) error {
	// Delete only our own lease; a reclaimed lock belongs to someone else.
	_, err := r.pool.Exec(ctx, `
		DELETE FROM conversation_locks WHERE chat_id=$1 AND token=$2
	`, chatID, token)
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

var _ conversation.LockRepository = (*LockRepository)(nil)
