package notify

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrQueueFull is returned when the dispatcher cannot accept more work without blocking.
var ErrQueueFull = errors.New("notify: queue full")

// deliveryTimeout bounds a single delivery attempt.
const deliveryTimeout = 5 * time.Second

// Dispatcher decouples callers from the delivery backend.
//
// Notify only enqueues on a buffered channel; Run drains the queue on its own goroutine and hands
// each notification to the backend. A slow or broken backend therefore never holds up a request:
// when the buffer is full new notifications are dropped instead of blocking.
type Dispatcher struct {
	next  Notifier
	queue chan Notification
}

// NewDispatcher creates a dispatcher in front of next with room for size pending notifications.
func NewDispatcher(next Notifier, size int) *Dispatcher {
	if size <= 0 {
		size = 1
	}
	return &Dispatcher{
		next:  next,
		queue: make(chan Notification, size),
	}
}

// Notify enqueues n without blocking.
func (d *Dispatcher) Notify(_ context.Context, n Notification) error {
	select {
	case d.queue <- n:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run delivers queued notifications until ctx is cancelled. It must be called in a goroutine.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-d.queue:
			d.deliver(ctx, n)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, n Notification) {
	ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()

	if err := d.next.Notify(ctx, n); err != nil {
		log.Warn().Err(err).Str("uid", n.UID).Str("title", n.Title).Msg("notification delivery failed")
	}
}
