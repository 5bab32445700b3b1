// Package memory provides in-process implementations of the conversation
// repositories. They honor the same compare-and-set contracts as the
// postgres implementations but are only correct within a single process;
// they back dev mode (no DATABASE_URL) and tests.
package memory

import (
	"context"
	"sync"

	"github.com/danmiller22/botfarm/internal/domain/conversation"
)

type stateEntry struct {
	state   conversation.State
	version int64
}

// StateRepository implements conversation.StateRepository.
type StateRepository struct {
	mu     sync.Mutex
	states map[int64]stateEntry
}

func NewStateRepository() *StateRepository {
	return &StateRepository{states: make(map[int64]stateEntry)}
}

func (r *StateRepository) Get(_ context.Context, chatID int64) (conversation.State, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.states[chatID]
	if !ok {
		return conversation.Initial(), 0, nil
	}
	return e.state, e.version, nil
}

func (r *StateRepository) CompareAndSet(_ context.Context, chatID int64, state conversation.State, expected int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := r.states[chatID]
	if cur.version != expected {
		return false, nil
	}
	r.states[chatID] = stateEntry{state: state, version: cur.version + 1}
	return true, nil
}

func (r *StateRepository) Put(_ context.Context, chatID int64, state conversation.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := r.states[chatID]
	r.states[chatID] = stateEntry{state: state, version: cur.version + 1}
	return nil
}

func (r *StateRepository) Reset(ctx context.Context, chatID int64) error {
	return r.Put(ctx, chatID, conversation.Initial())
}
