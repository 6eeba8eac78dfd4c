// Package queue carries event batches from the reader to the workers.
//
// The queue is a bounded channel: Enqueue blocks while it is full so a fast
// reader cannot run ahead of the workers by more than the capacity.
package queue

import (
	"context"
	"sync"

	"github.com/okian/tauskim/internal/domain/model"
	"github.com/okian/tauskim/pkg/metrics"
)

const defaultQueueCapacity = 64

// Batch is the payload flowing through the queue.
type Batch = model.Batch

// Queue provides blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a batch, waiting for room. It fails with ErrClosed after
	// Close or with the context error when ctx ends first.
	Enqueue(ctx context.Context, b Batch) error

	// Dequeue returns a channel receiving batches in enqueue order.
	// The channel is closed once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Batch

	// Len returns the current number of queued batches.
	Len() int

	// Close stops accepting batches. Queued batches are still delivered.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	batches  chan Batch
	capacity int
	sample   string

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.batches = make(chan Batch, q.capacity)

	metrics.UpdateQueueCapacity(q.sample, q.capacity)
	metrics.UpdateQueueSize(q.sample, 0)
	metrics.UpdateQueueUtilization(q.sample, 0.0)

	return q
}

// Enqueue adds a batch to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, b Batch) error { //nolint:gocritic // hugeParam: Batch is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}

	select {
	case q.batches <- b:
		metrics.RecordQueueEnqueue()
		q.observe()
		return nil
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return ctx.Err()
	}
}

// Dequeue returns a channel that will receive batches as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Batch {
	out := make(chan Batch)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case b, ok := <-q.batches:
				if !ok {
					return
				}
				select {
				case out <- b:
					metrics.RecordQueueDequeue()
					q.observe()
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func (q *InMemoryQueue) observe() {
	size := len(q.batches)
	metrics.UpdateQueueSize(q.sample, size)
	metrics.UpdateQueueUtilization(q.sample, float64(size)/float64(q.capacity))
}

// Len returns the current number of queued batches.
func (q *InMemoryQueue) Len() int {
	return len(q.batches)
}

// Close stops the queue. It waits for in-progress Enqueue calls to return.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.batches)
	q.closed = true
	return nil
}
