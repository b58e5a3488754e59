// Package queue buffers ledger entries between the live refresher and the
// ledger writers.
package queue

import (
	"context"
	"sync"

	"github.com/okian/canmnt/internal/domain/model"
	"github.com/okian/canmnt/pkg/metrics"
)

const defaultCapacity = 1024

// Entry is the payload flowing through the queue.
type Entry = model.LedgerEntry

// Queue provides non-blocking enqueue and channel-based dequeue.
type Queue interface {
	// Enqueue adds an entry. It returns false when the queue is full or closed.
	Enqueue(ctx context.Context, e Entry) bool

	// Dequeue returns the receive side. It is closed once the queue is closed
	// and drained.
	Dequeue() <-chan Entry

	Len() int
	Cap() int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue with a buffered channel.
type InMemoryQueue struct {
	entries  chan Entry
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.entries = make(chan Entry, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds an entry without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, e Entry) bool { //nolint:gocritic // hugeParam: entries travel by value through the channel
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError("closed")
		return false
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError("context_cancelled")
		return false
	}

	select {
	case q.entries <- e:
		metrics.UpdateQueueSize(len(q.entries))
		return true
	default:
		metrics.RecordQueueEnqueueError("queue_full")
		return false
	}
}

// Dequeue returns the channel workers read from.
func (q *InMemoryQueue) Dequeue() <-chan Entry {
	return q.entries
}

// Len returns the number of buffered entries.
func (q *InMemoryQueue) Len() int {
	n := len(q.entries)
	metrics.UpdateQueueSize(n)
	return n
}

// Cap returns the queue capacity.
func (q *InMemoryQueue) Cap() int { return q.capacity }

// Close stops accepting entries. Buffered entries remain readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.entries)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
