package notify

import (
	"context"
	"log"

	"laundry-reservation-backend/internal/engine"
)

// Sender delivers one event over a single channel. Implementations must
// swallow delivery failures; a lost notification never fails an operation.
type Sender interface {
	Send(ctx context.Context, ev engine.Event)
}

// Dispatcher accepts events from the reservation engine.
type Dispatcher interface {
	Dispatch(ev engine.Event)
}

// WorkerPool fans events out to every configured sender from a fixed set of
// worker goroutines.
type WorkerPool struct {
	size    int
	jobs    chan engine.Event
	senders []Sender
}

// NewWorkerPool creates a worker pool delivering through the given senders.
func NewWorkerPool(size int, senders ...Sender) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan engine.Event, size*4),
		senders: senders,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("notification worker %d started", id)
	for {
		select {
		case ev := <-wp.jobs:
			for _, s := range wp.senders {
				s.Send(ctx, ev)
			}
		case <-ctx.Done():
			log.Printf("notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues an event for delivery. It never blocks the caller: when the
// queue is full the event is dropped with a log line.
func (wp *WorkerPool) Dispatch(ev engine.Event) {
	select {
	case wp.jobs <- ev:
	default:
		log.Printf("notification queue full, dropping %s event for %s", ev.Kind, ev.Machine)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan engine.Event {
	return wp.jobs
}
