package queue

// Queue represents an unbounded FIFO queue that never blocks producers.
type Queue[T any] interface {
	Enqueue(item T)
	// Signal is readable whenever the queue may have items.
	Signal() <-chan struct{}
	Size() int
	ReadAllMessages() []T
	ClearQueue()
}
