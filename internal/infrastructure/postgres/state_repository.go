package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/danmiller22/botfarm/internal/domain/conversation"
)

// StateRepository implements conversation.StateRepository. The version
// column carries the compare-and-set check; every write bumps it.
type StateRepository struct {
	pool *pgxpool.Pool
}

func NewStateRepository(pool *pgxpool.Pool) *StateRepository {
	return &StateRepository{pool: pool}
}

func (r *StateRepository) Get(ctx context.Context, chatID int64) (conversation.State, int64, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT step, data, version FROM conversation_states WHERE chat_id=$1
	`, chatID)

	var step string
	var data []byte
	var version int64
	if err := row.Scan(&step, &data, &version); err != nil {
		if err == pgx.ErrNoRows {
			return conversation.Initial(), 0, nil
		}
		return conversation.State{}, 0, fmt.Errorf("query state: %w", err)
	}

	st := conversation.State{Step: conversation.Step(step)}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &st.Data); err != nil {
			return conversation.State{}, 0, fmt.Errorf("decode state data: %w", err)
		}
	}
	return st, version, nil
}

func (r *StateRepository) CompareAndSet(ctx context.Context, chatID int64, state conversation.State, expected int64) (bool, error) {
	data, err := json.Marshal(state.Data)
	if err != nil {
		return false, fmt.Errorf("encode state data: %w", err)
	}

	// Version 0 means "no row yet": the conditional write is an insert
	// that loses to any concurrent creator.
	if expected == 0 {
		tag, err := r.pool.Exec(ctx, `
			INSERT INTO conversation_states (chat_id, step, data, version, updated_at)
			VALUES ($1, $2, $3, 1, now())
			ON CONFLICT (chat_id) DO NOTHING
		`, chatID, string(state.Step), data)
		if err != nil {
			return false, fmt.Errorf("insert state: %w", err)
		}
		return tag.RowsAffected() == 1, nil
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE conversation_states
		SET step=$2, data=$3, version=version+1, updated_at=now()
		WHERE chat_id=$1 AND version=$4
	`, chatID, string(state.Step), data, expected)
	if err != nil {
		return false, fmt.Errorf("update state: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *StateRepository) Put(ctx context.Context, chatID int64, state conversation.State) error {
	data, err := json.Marshal(state.Data)
	if err != nil {
		return fmt.Errorf("encode state data: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO conversation_states (chat_id, step, data, version, updated_at)
		VALUES ($1, $2, $3, 1, now())
		ON CONFLICT (chat_id) DO UPDATE
		SET step=EXCLUDED.step, data=EXCLUDED.data,
		    version=conversation_states.version+1, updated_at=now()
	`, chatID, string(state.Step), data)
	if err != nil {
		return fmt.Errorf("put state: %w", err)
	}
	return nil
}

func (r *StateRepository) Reset(ctx context.Context, chatID int64) error {
	return r.Put(ctx, chatID, conversation.Initial())
}

var _ conversation.StateRepository = (*StateRepository)(nil)
