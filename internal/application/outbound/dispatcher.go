package outbound

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultQueueSize bounds the dispatcher's pending sends.
const DefaultQueueSize = 256

const sendTimeout = 10 * time.Second

// Dispatcher delivers messages through a single background worker. Sends
// are best-effort: failures are logged and never retried, and a full queue
// drops the message rather than blocking the caller. One worker keeps
// per-conversation ordering of queued messages.
type Dispatcher struct {
	messenger Messenger
	jobs      chan Message
	logger    zerolog.Logger
}

// NewDispatcher creates a dispatcher with a bounded queue. Non-positive
// sizes fall back to DefaultQueueSize.
func NewDispatcher(messenger Messenger, size int, logger zerolog.Logger) *Dispatcher {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Dispatcher{
		messenger: messenger,
		jobs:      make(chan Message, size),
		logger:    logger.With().Str("service", "outbound").Logger(),
	}
}

// Start launches the worker; it stops when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Dispatcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-d.jobs:
			sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
			if err := d.messenger.Send(sendCtx, msg); err != nil {
				d.logger.Warn().Err(err).Int64("chat_id", msg.ChatID).Msg("send failed")
			}
			cancel()
		}
	}
}

// Enqueue queues a message for delivery. It never blocks; when the queue is
// full the message is dropped and false returned.
func (d *Dispatcher) Enqueue(msg Message) bool {
	select {
	case d.jobs <- msg:
		return true
	default:
		d.logger.Warn().Int64("chat_id", msg.ChatID).Msg("outbound queue full, message dropped")
		return false
	}
}
