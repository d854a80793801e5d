// Package queue carries raw bus samples from subscription handlers to the
// store writers.
//
// Enqueue never blocks: a subscription handler runs on the bus delivery
// goroutine, so a full queue drops the sample instead of stalling the bus.
package queue

import (
	"context"
	"sync"

	"github.com/okian/elrobot/internal/domain/model"
	"github.com/okian/elrobot/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 4096
	defaultBufferSize    = 4096
)

// Sample is the payload type flowing through the queue.
type Sample = model.Sample

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a sample to the queue.
	// Returns false if the queue is full or closed and the sample was dropped.
	Enqueue(ctx context.Context, s Sample) bool

	// Dequeue returns the channel samples are read from.
	// The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Sample

	// Len returns the current number of queued samples.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue.
	// After closing, no new samples are accepted and the dequeue channel is closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	samples    chan Sample
	capacity   int
	bufferSize int
	mu         sync.RWMutex
	closed     bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultQueueCapacity,
		bufferSize: defaultBufferSize,
	}

	for _, opt := range opts {
		opt(q)
	}
	if q.bufferSize < q.capacity {
		q.bufferSize = q.capacity
	}

	q.samples = make(chan Sample, q.bufferSize)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)

	return q
}

// Enqueue adds a sample to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, s Sample) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordSampleDropped("closed")
		return false
	}

	if len(q.samples) >= q.capacity {
		metrics.RecordSampleDropped("queue_full")
		return false
	}

	select {
	case q.samples <- s:
		metrics.UpdateQueueSize(len(q.samples))
		return true
	case <-ctx.Done():
		metrics.RecordSampleDropped("context_cancelled")
		return false
	default:
		metrics.RecordSampleDropped("queue_full")
		return false
	}
}

// Dequeue returns the channel samples are read from. Several consumers may
// read it concurrently.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Sample {
	return q.samples
}

// Len returns the current number of queued samples.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.samples)
	metrics.UpdateQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.samples)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
