// Package queue provides blocking point-to-point work queues: a FIFO queue
// and a priority queue ordered by sequence index.
package queue

import (
	"sync"
)

// slot holds either an item or the end-of-stream tombstone
type slot[T any] struct {
	value  T
	closed bool
}

// WorkQueue is an unbounded FIFO queue where each item is consumed by
// exactly one Pop. Close appends a tombstone that ends exactly one consumer,
// so a producer feeding N consumers closes N times.
type WorkQueue[T any] struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []slot[T]
}

// NewWorkQueue creates an empty FIFO work queue
func NewWorkQueue[T any]() *WorkQueue[T] {
	q := &WorkQueue[T]{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends an item and wakes blocked consumers
func (q *WorkQueue[T]) Push(item T) {
	q.push(slot[T]{value: item})
}

// Close appends a tombstone
func (q *WorkQueue[T]) Close() {
	q.push(slot[T]{closed: true})
}

func (q *WorkQueue[T]) push(s slot[T]) {
	q.mu.Lock()
	q.items = append(q.items, s)
	q.mu.Unlock()

	// Front waiters share the condition, so every waiter re-checks
	q.cond.Broadcast()
}

// Pop blocks until the queue is non-empty and removes the front entry.
// The boolean is false when the entry was a tombstone.
func (q *WorkQueue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		q.cond.Wait()
	}

	front := q.items[0]
	q.items[0] = slot[T]{}
	q.items = q.items[1:]

	return front.value, !front.closed
}

// Front blocks until the queue is non-empty and returns the front entry
// without removing it
func (q *WorkQueue[T]) Front() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		q.cond.Wait()
	}

	front := q.items[0]
	return front.value, !front.closed
}

// Size returns the number of queued entries, tombstones included
func (q *WorkQueue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
