package gamesync

import "sync"

type subscription[T any] struct {
	id uint64
	fn func(T)
}

// registry is an ordered set of observers. Notification rounds run over a
// snapshot of the registry, so observers may subscribe or unsubscribe from
// inside a callback: the current round still reaches everyone who was
// registered when it started, and changes apply from the next round.
type registry[T any] struct {
	lock   sync.Mutex
	nextID uint64
	subs   []subscription[T]
}

func (r *registry[T]) add(fn func(T)) (unsubscribe func()) {
	r.lock.Lock()
	id := r.nextID
	r.nextID++
	r.subs = append(r.subs, subscription[T]{id: id, fn: fn})
	r.lock.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(id) })
	}
}

func (r *registry[T]) remove(id uint64) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for i, s := range r.subs {
		if s.id == id {
			// never write into a slice a running round may hold
			next := make([]subscription[T], 0, len(r.subs)-1)
			next = append(next, r.subs[:i]...)
			r.subs = append(next, r.subs[i+1:]...)
			return
		}
	}
}

func (r *registry[T]) snapshot() []subscription[T] {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.subs[:len(r.subs):len(r.subs)]
}

func (r *registry[T]) len() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.subs)
}

func (r *registry[T]) notify(value T) {
	for _, s := range r.snapshot() {
		s.fn(value)
	}
}
