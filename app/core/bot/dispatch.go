package bot

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/DagdarionV/telegram-it-admin-bot/app/pkg/types"
)

const userQueueDepth = 16

// Dispatcher serializes updates per user: messages from one user are
// handled in order, different users run concurrently. This keeps draft
// dialogs consistent without a global lock.
type Dispatcher struct {
	ctx    context.Context
	handle func(context.Context, types.Message)
	log    zerolog.Logger

	mu     sync.Mutex
	queues map[int64]chan types.Message
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(ctx context.Context, handle func(context.Context, types.Message), log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		ctx:    ctx,
		handle: handle,
		log:    log.With().Str("component", "dispatcher").Logger(),
		queues: map[int64]chan types.Message{},
	}
}

// Enqueue routes an update to its user's worker, starting one on first
// contact. Updates for a saturated queue are dropped.
func (d *Dispatcher) Enqueue(msg types.Message) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	queue, ok := d.queues[msg.UserID]
	if !ok {
		queue = make(chan types.Message, userQueueDepth)
		d.queues[msg.UserID] = queue
		d.wg.Add(1)
		go d.worker(queue)
	}
	d.mu.Unlock()

	select {
	case queue <- msg:
	default:
		d.log.Warn().
			Int64("user_id", msg.UserID).
			Str("request_id", msg.RequestID).
			Msg("user queue full, update dropped")
	}
}

func (d *Dispatcher) worker(queue chan types.Message) {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case msg, ok := <-queue:
			if !ok {
				return
			}
			d.safeHandle(msg)
		}
	}
}

func (d *Dispatcher) safeHandle(msg types.Message) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().
				Interface("panic", r).
				Str("request_id", msg.RequestID).
				Msg("handler panicked")
		}
	}()
	d.handle(d.ctx, msg)
}

// Close stops accepting updates and waits for in-flight ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, queue := range d.queues {
		close(queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
