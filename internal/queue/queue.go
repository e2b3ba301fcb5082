// Package queue is the in-process transport between the webhook endpoint and
// reconciliation workers. Enqueue never blocks the HTTP handler.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"AgriConnect/internal/messaging"
	"AgriConnect/pkg/correlation"
	"AgriConnect/pkg/metrics"
)

// ErrClosed is returned by Publish after intake has been closed for shutdown.
var ErrClosed = errors.New("queue: intake closed")

type item struct {
	correlationID string
	key           []byte
	value         []byte
}

// Queue is an unbounded backlog drained by Workers.
type Queue struct {
	mu       sync.Mutex
	backlog  []item
	closed   bool
	notify   chan struct{}
	intakeCh chan struct{}

	highWatermark int

	enqueued  atomic.Uint64
	processed atomic.Uint64
}

// New creates a Queue. A positive highWatermark logs a warning whenever the
// backlog grows past it.
func New(highWatermark int) *Queue {
	return &Queue{
		notify:        make(chan struct{}, 1),
		intakeCh:      make(chan struct{}),
		highWatermark: highWatermark,
	}
}

// Publish implements messaging.Publisher.
func (q *Queue) Publish(ctx context.Context, env messaging.Envelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return q.enqueue(item{
		correlationID: correlation.FromContext(ctx),
		key:           []byte(env.Key),
		value:         value,
	})
}

func (q *Queue) enqueue(it item) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.backlog = append(q.backlog, it)
	size := len(q.backlog)
	q.mu.Unlock()

	q.enqueued.Add(1)
	metrics.QueueBacklog.Set(float64(size))
	if q.highWatermark > 0 && size > q.highWatermark {
		slog.Warn("Queue backlog exceeds high watermark",
			"backlog_size", size,
			"high_watermark", q.highWatermark)
	}
	q.wake()
	return nil
}

func (q *Queue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// pop returns the oldest item. done is true once intake is closed and the
// backlog is empty.
func (q *Queue) pop() (it item, ok bool, done bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.backlog) == 0 {
		return item{}, false, q.closed
	}
	it = q.backlog[0]
	q.backlog[0] = item{}
	q.backlog = q.backlog[1:]
	metrics.QueueBacklog.Set(float64(len(q.backlog)))
	if len(q.backlog) > 0 {
		q.wake()
	}
	return it, true, false
}

// Close stops intake. Items already queued are still handed to workers.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.intakeCh)
	}
	return nil
}

// Len returns the number of queued items not yet taken by a worker.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.backlog)
}

// Stats returns lifetime enqueued and processed counts.
func (q *Queue) Stats() (enqueued, processed uint64) {
	return q.enqueued.Load(), q.processed.Load()
}

// Workers returns n workers draining q, ready for messaging.NewRunner.
func (q *Queue) Workers(n int) []messaging.Worker {
	if n < 1 {
		n = 1
	}
	workers := make([]messaging.Worker, 0, n)
	for i := 0; i < n; i++ {
		workers = append(workers, &Worker{queue: q, id: i})
	}
	return workers
}

// Worker implements messaging.Worker over a Queue.
type Worker struct {
	queue *Queue
	id    int
}

// Start hands queued items to handler until the queue is closed and drained,
// or ctx is cancelled. Handler errors are logged; the item is not requeued.
func (w *Worker) Start(ctx context.Context, handler messaging.MessageHandler) error {
	q := w.queue
	for {
		if ctx.Err() != nil {
			return nil
		}
		it, ok, done := q.pop()
		if done {
			return nil
		}
		if ok {
			msgCtx := ctx
			if it.correlationID != "" {
				msgCtx = correlation.WithID(ctx, it.correlationID)
			}
			if err := handler(msgCtx, it.key, it.value); err != nil {
				slog.ErrorContext(msgCtx, "Queue handler error",
					"worker_idx", w.id,
					"key", string(it.key),
					slog.Any("error", err))
			}
			q.processed.Add(1)
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-q.notify:
		case <-q.intakeCh:
		}
	}
}

func (w *Worker) Close() error {
	return nil
}
