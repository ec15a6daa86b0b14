package queue

import "sync"

// InMemoryQueue implements an unbounded in-memory queue.
type InMemoryQueue[T any] struct {
	items  []T
	signal chan struct{}
	lock   sync.Mutex
}

// NewInMemoryQueue creates a new queue.
func NewInMemoryQueue[T any]() *InMemoryQueue[T] {
	return &InMemoryQueue[T]{
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an item to the end of the queue.
func (q *InMemoryQueue[T]) Enqueue(item T) {
	q.lock.Lock()
	q.items = append(q.items, item)
	q.lock.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
		// a wakeup is already pending
	}
}

// Signal returns a channel that receives a value after items are enqueued.
// A single wakeup may cover many items, so readers should drain with
// ReadAllMessages.
func (q *InMemoryQueue[T]) Signal() <-chan struct{} {
	return q.signal
}

// Size returns the current size of the queue.
func (q *InMemoryQueue[T]) Size() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.items)
}

// ReadAllMessages removes and returns all pending items in order.
func (q *InMemoryQueue[T]) ReadAllMessages() []T {
	q.lock.Lock()
	defer q.lock.Unlock()

	messages := q.items
	q.items = nil
	return messages
}

// ClearQueue clears all messages from the queue.
func (q *InMemoryQueue[T]) ClearQueue() {
	q.lock.Lock()
	defer q.lock.Unlock()
	q.items = nil
}
