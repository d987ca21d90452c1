package queue

import (
	"sync"
)

// Queue is a generic thread-safe FIFO queue with an optional length limit.
// When a limit is set, pushing past it evicts the oldest items.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	head  int
	limit int
}

// New creates a new empty, unbounded queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		items: make([]T, 0),
	}
}

// NewBounded creates a queue holding at most limit items.
// A limit of zero or less disables eviction.
func NewBounded[T any](limit int) *Queue[T] {
	q := New[T]()
	q.limit = limit
	return q
}

// Push appends items to the queue, evicting the oldest items if over the limit.
// Returns the number of evicted items.
func (q *Queue[T]) Push(items ...T) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, items...)
	return q.trim()
}

// SetLimit changes the length limit and evicts immediately if needed.
func (q *Queue[T]) SetLimit(limit int) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.limit = limit
	return q.trim()
}

// Limit returns the configured length limit.
func (q *Queue[T]) Limit() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.limit
}

// trim drops items from the front until the limit is respected. Caller holds mu.
func (q *Queue[T]) trim() int {
	if q.limit <= 0 {
		return 0
	}
	evicted := 0
	for len(q.items)-q.head > q.limit {
		var zero T
		q.items[q.head] = zero
		q.head++
		evicted++
	}
	q.compact()
	return evicted
}

// compact reclaims the evicted prefix once it dominates the backing slice.
func (q *Queue[T]) compact() {
	if q.head == 0 || q.head < len(q.items)/2 {
		return
	}
	n := copy(q.items, q.items[q.head:])
	clear(q.items[n:])
	q.items = q.items[:n]
	q.head = 0
}

// Len returns the number of items in the queue.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Clear removes all items from the queue.
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	clear(q.items)
	q.items = q.items[:0]
	q.head = 0
}

// Items returns a copy of the queued items, oldest first.
func (q *Queue[T]) Items() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]T, len(q.items)-q.head)
	copy(out, q.items[q.head:])
	return out
}

