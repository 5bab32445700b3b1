package dialog

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmiller22/botfarm/internal/application/dedup"
	"github.com/danmiller22/botfarm/internal/application/outbound"
	"github.com/danmiller22/botfarm/internal/domain/conversation"
	"github.com/danmiller22/botfarm/internal/domain/report"
)

// Defaults for the per-conversation lease.
const (
	DefaultLockTTL        = 3 * time.Second
	DefaultLockRetryDelay = 40 * time.Millisecond
)

// Finalizer receives the immutable snapshot of a completed flow. Submit
// must not block: finalization runs on its own goroutine, after the
// conversation lock has been released.
type Finalizer interface {
	Submit(snap report.Snapshot)
}

// Service drives one inbound update through dedup, the per-conversation
// lock, the state machine and the state store, then hands replies to the
// outbound dispatcher and completed flows to the finalizer.
type Service struct {
	engine  *Engine
	states  conversation.StateRepository
	locks   conversation.LockRepository
	gate    *dedup.Gate
	disp    *outbound.Dispatcher
	deb     *outbound.Debouncer
	fin     Finalizer
	allowed map[int64]struct{}

	lockTTL    time.Duration
	retryDelay time.Duration

	logger zerolog.Logger
}

// NewService wires a dialog service. allowedChatIDs may be empty, which
// admits every conversation.
func NewService(
	engine *Engine,
	states conversation.StateRepository,
	locks conversation.LockRepository,
	gate *dedup.Gate,
	disp *outbound.Dispatcher,
	deb *outbound.Debouncer,
	fin Finalizer,
	allowedChatIDs []int64,
	lockTTL time.Duration,
	retryDelay time.Duration,
	logger zerolog.Logger,
) *Service {
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	if retryDelay <= 0 {
		retryDelay = DefaultLockRetryDelay
	}
	var allowed map[int64]struct{}
	if len(allowedChatIDs) > 0 {
		allowed = make(map[int64]struct{}, len(allowedChatIDs))
		for _, id := range allowedChatIDs {
			allowed[id] = struct{}{}
		}
	}
	return &Service{
		engine:     engine,
		states:     states,
		locks:      locks,
		gate:       gate,
		disp:       disp,
		deb:        deb,
		fin:        fin,
		allowed:    allowed,
		lockTTL:    lockTTL,
		retryDelay: retryDelay,
		logger:     logger.With().Str("service", "dialog").Logger(),
	}
}

// HandleUpdate processes one inbound event. Duplicates and disallowed
// chats are dropped silently. Errors are conversation-local; the caller
// only logs them.
func (s *Service) HandleUpdate(ctx context.Context, u Update) error {
	if u.ChatID == 0 {
		return nil
	}
	if s.allowed != nil {
		if _, ok := s.allowed[u.ChatID]; !ok {
			s.logger.Debug().Int64("chat_id", u.ChatID).Msg("chat not in allow list")
			return nil
		}
	}
	if !s.gate.Admit(u.ChatID, u.UpdateID, u.MessageID) {
		s.logger.Debug().
			Int64("chat_id", u.ChatID).
			Int("update_id", u.UpdateID).
			Msg("duplicate delivery dropped")
		return nil
	}

	out, err := s.advance(ctx, u)
	if err != nil {
		return err
	}

	for _, p := range out.Prompts {
		if p.Debounce && !s.deb.Allow(u.ChatID, p.Key) {
			continue
		}
		s.disp.Enqueue(outbound.Message{ChatID: u.ChatID, Text: p.Text, Keyboard: p.Keyboard})
	}
	if out.Snapshot != nil {
		s.fin.Submit(*out.Snapshot)
	}
	return nil
}

// advance runs the lock-guarded read-modify-write. The lock is held only
// across the state read, the transition and the write; never across
// network I/O.
func (s *Service) advance(ctx context.Context, u Update) (Outcome, error) {
	token, err := s.acquireLock(ctx, u.ChatID)
	if err != nil {
		return Outcome{}, err
	}
	defer func() {
		if err := s.locks.Release(ctx, u.ChatID, token); err != nil {
			s.logger.Warn().Err(err).Int64("chat_id", u.ChatID).Msg("lock release failed")
		}
	}()

	st, version, err := s.states.Get(ctx, u.ChatID)
	if err != nil {
		return Outcome{}, fmt.Errorf("get state: %w", err)
	}
	out := s.engine.Transition(st, u)

	switch {
	case out.Reset:
		if err := s.states.Reset(ctx, u.ChatID); err != nil {
			return Outcome{}, fmt.Errorf("reset state: %w", err)
		}
	case out.Next != nil:
		if err := s.writeState(ctx, u, *out.Next, version, &out); err != nil {
			return Outcome{}, err
		}
	}
	return out, nil
}

// writeState is CAS with a single full read-modify-write retry; a second
// conflict falls through to last-writer-wins. The lock is the primary
// serializer, this is defense in depth.
func (s *Service) writeState(ctx context.Context, u Update, next conversation.State, version int64, out *Outcome) error {
	ok, err := s.states.CompareAndSet(ctx, u.ChatID, next, version)
	if err != nil {
		return fmt.Errorf("set state: %w", err)
	}
	if ok {
		return nil
	}

	s.logger.Warn().Int64("chat_id", u.ChatID).Msg("state version conflict, retrying transition")
	st, version, err := s.states.Get(ctx, u.ChatID)
	if err != nil {
		return fmt.Errorf("get state: %w", err)
	}
	retried := s.engine.Transition(st, u)
	*out = retried
	switch {
	case retried.Reset:
		return s.states.Reset(ctx, u.ChatID)
	case retried.Next == nil:
		return nil
	}
	ok, err = s.states.CompareAndSet(ctx, u.ChatID, *retried.Next, version)
	if err != nil {
		return fmt.Errorf("set state: %w", err)
	}
	if !ok {
		return s.states.Put(ctx, u.ChatID, *retried.Next)
	}
	return nil
}

// acquireLock retries a contended lease with a short fixed delay. The
// budget is twice the lease TTL: a crashed holder's lease has expired by
// then, so failing here means live contention, and the event is dropped.
func (s *Service) acquireLock(ctx context.Context, chatID int64) (string, error) {
	deadline := time.Now().Add(2 * s.lockTTL)
	for {
		token, ok, err := s.locks.TryAcquire(ctx, chatID, s.lockTTL)
		if err != nil {
			return "", fmt.Errorf("acquire lock: %w", err)
		}
		if ok {
			return token, nil
		}
		if time.Now().After(deadline) {
			return "", conversation.ErrLockHeld
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.retryDelay):
		}
	}
}
