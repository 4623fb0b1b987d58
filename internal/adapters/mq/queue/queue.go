// Package queue hands round documents from the loader to the extraction
// workers.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/grapple/internal/domain/model"
	"github.com/okian/grapple/pkg/metrics"
)

const defaultQueueCapacity = 256

// Document is the unit of work.
type Document = model.RoundDocument

// Queue is a bounded FIFO of round documents.
type Queue interface {
	// Enqueue blocks until there is room, the context ends or the queue is
	// closed. Documents are never dropped silently.
	Enqueue(ctx context.Context, d Document) error

	// Dequeue returns the receive side; it is closed once the queue is
	// closed and drained.
	Dequeue(ctx context.Context) <-chan Document

	Len(ctx context.Context) int

	Close() error

	IsClosed() bool
}

// InMemoryQueue is a channel-backed Queue.
type InMemoryQueue struct {
	docs     chan Document
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.docs = make(chan Document, q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue implements Queue.Enqueue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, d Document) error { //nolint:gocritic // hugeParam: passed by value through the channel
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}
	select {
	case q.docs <- d:
		metrics.UpdateQueueSize(len(q.docs))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("enqueue %s: %w", d.Key(), ctx.Err())
	}
}

// Dequeue implements Queue.Dequeue.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Document {
	return q.docs
}

// Len returns the number of waiting documents.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.docs)
	metrics.UpdateQueueSize(size)
	return size
}

// Close stops accepting documents. Waiting documents stay readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.docs)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
