// Package queue holds pending feed refresh requests.
//
// A refresh asks the worker pool to rebuild a user's feed after their cached
// copy was invalidated. Requests for the same user and window coalesce while
// one is pending, so a burst of writes costs a single rebuild.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/elockenvitz/tesseract/pkg/metrics"
)

const defaultCapacity = 4096

// Refresh asks for a user's feed to be rebuilt.
type Refresh struct {
	UserID      string
	WindowHours int
	RequestedAt time.Time
}

type refreshKey struct {
	userID string
	hours  int
}

// Queue provides non-blocking enqueue and blocking, coalescing dequeue.
type Queue interface {
	// Enqueue adds a refresh. It returns false when the queue is closed or full;
	// a request already pending for the same key counts as accepted.
	Enqueue(ctx context.Context, userID string, windowHours int) bool

	// Next blocks until a refresh is available, ctx ends, or the queue is
	// closed and drained (ErrClosed).
	Next(ctx context.Context) (Refresh, error)

	// Len returns the number of pending refreshes.
	Len() int

	// Close stops accepting refreshes; pending ones can still be taken.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel plus a pending set.
type InMemoryQueue struct {
	items    chan Refresh
	capacity int
	now      func() time.Time

	mu      sync.Mutex
	pending map[refreshKey]struct{}
	closed  bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
		now:      time.Now,
		pending:  make(map[refreshKey]struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Refresh, q.capacity)
	metrics.UpdateRefreshQueueSize(0)
	return q
}

// Enqueue adds a refresh for userID.
func (q *InMemoryQueue) Enqueue(ctx context.Context, userID string, windowHours int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || ctx.Err() != nil {
		metrics.RecordRefreshEnqueue("rejected")
		metrics.RecordErrorByComponent("refresh_queue", "closed")
		return false
	}
	key := refreshKey{userID: userID, hours: windowHours}
	if _, ok := q.pending[key]; ok {
		metrics.RecordRefreshEnqueue("coalesced")
		return true
	}

	select {
	case q.items <- Refresh{UserID: userID, WindowHours: windowHours, RequestedAt: q.now()}:
		q.pending[key] = struct{}{}
		metrics.RecordRefreshEnqueue("queued")
		metrics.UpdateRefreshQueueSize(len(q.items))
		return true
	default:
		metrics.RecordRefreshEnqueue("rejected")
		metrics.RecordErrorByComponent("refresh_queue", "queue_full")
		return false
	}
}

// Next takes the oldest pending refresh.
func (q *InMemoryQueue) Next(ctx context.Context) (Refresh, error) {
	select {
	case r, ok := <-q.items:
		if !ok {
			return Refresh{}, ErrClosed
		}
		q.mu.Lock()
		delete(q.pending, refreshKey{userID: r.UserID, hours: r.WindowHours})
		q.mu.Unlock()
		metrics.UpdateRefreshQueueSize(len(q.items))
		return r, nil
	case <-ctx.Done():
		return Refresh{}, ctx.Err()
	}
}

// Len returns the number of pending refreshes.
func (q *InMemoryQueue) Len() int {
	return len(q.items)
}

// Close stops accepting refreshes. It is safe to call more than once.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}
