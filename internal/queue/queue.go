// Package queue holds the mutex-guarded buffers that sit between producers
// on other goroutines and a single consumer draining once per cycle.
package queue

import "sync"

// Queue is a FIFO buffer safe for concurrent use. With a limit it accepts
// pushes only while it holds fewer than limit items.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	limit int
}

// New returns an unbounded queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

// NewLimited returns a queue holding at most limit items. A limit below 1
// means unbounded.
func NewLimited[T any](limit int) *Queue[T] {
	return &Queue[T]{limit: limit}
}

// Push appends what fits and reports how many items did not.
func (q *Queue[T]) Push(items ...T) (dropped int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.limit > 0 {
		if room := max(q.limit-len(q.items), 0); len(items) > room {
			dropped = len(items) - room
			items = items[:room]
		}
	}
	q.items = append(q.items, items...)
	return dropped
}

// Drain hands over everything queued. The returned slice is the caller's.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

// Latest keeps every item key reports as unkeyed, in order, and for each key
// only the last item pushed with it, at the position of that last push.
func Latest[T any, K comparable](items []T, key func(T) (K, bool)) []T {
	last := make(map[K]int)
	for i, it := range items {
		if k, ok := key(it); ok {
			last[k] = i
		}
	}
	out := make([]T, 0, len(items))
	for i, it := range items {
		if k, ok := key(it); ok && last[k] != i {
			continue
		}
		out = append(out, it)
	}
	return out
}
