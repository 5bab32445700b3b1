package dialog

import (
	"context"

	"github.com/rs/zerolog"
)

// DefaultWorkerCount is the number of concurrent update handlers.
const DefaultWorkerCount = 8

// Processor decouples webhook acknowledgement from update handling: the
// HTTP handler enqueues and returns, a worker pool drains the queue.
// Cross-conversation ordering is not guaranteed; within one conversation
// the lock serializes handlers.
type Processor struct {
	svc     *Service
	jobs    chan Update
	workers int
	logger  zerolog.Logger
}

// NewProcessor creates a processor with a bounded queue.
func NewProcessor(svc *Service, queueSize, workers int, logger zerolog.Logger) *Processor {
	if queueSize <= 0 {
		queueSize = 256
	}
	if workers <= 0 {
		workers = DefaultWorkerCount
	}
	return &Processor{
		svc:     svc,
		jobs:    make(chan Update, queueSize),
		workers: workers,
		logger:  logger.With().Str("service", "dialog_processor").Logger(),
	}
}

// Start launches the worker pool; workers stop when ctx is cancelled.
func (p *Processor) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		go p.run(ctx)
	}
}

func (p *Processor) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-p.jobs:
			if err := p.svc.HandleUpdate(ctx, u); err != nil {
				p.logger.Error().Err(err).Int64("chat_id", u.ChatID).Msg("update failed")
			}
		}
	}
}

// Enqueue queues an update without blocking. A full queue drops the
// update; Telegram redelivers and the dedup gate absorbs any overlap.
func (p *Processor) Enqueue(u Update) bool {
	select {
	case p.jobs <- u:
		return true
	default:
		p.logger.Warn().Int64("chat_id", u.ChatID).Msg("update queue full, dropped")
		return false
	}
}
