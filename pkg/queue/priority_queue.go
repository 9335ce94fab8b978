package queue

import (
	"container/heap"
	"sync"
)

// Indexed pairs a payload with its sequence index
type Indexed[T any] struct {
	Index uint64
	Value T
}

// indexedHeap is a min-heap on Index (internal use)
type indexedHeap[T any] []Indexed[T]

// Len implements heap.Interface
func (h indexedHeap[T]) Len() int { return len(h) }

// Less implements heap.Interface - lowest index first
func (h indexedHeap[T]) Less(i, j int) bool { return h[i].Index < h[j].Index }

// Swap implements heap.Interface
func (h indexedHeap[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

// Push implements heap.Interface
func (h *indexedHeap[T]) Push(x interface{}) {
	*h = append(*h, x.(Indexed[T]))
}

// Pop implements heap.Interface
func (h *indexedHeap[T]) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = Indexed[T]{}
	*h = old[0 : n-1]
	return item
}

// PriorityQueue is an unbounded blocking queue ordered by ascending sequence
// index. It is closed once every declared producer has called Close; from
// then on a waiter whose element is not present returns immediately.
type PriorityQueue[T any] struct {
	mu        sync.Mutex
	cond      *sync.Cond
	heap      indexedHeap[T]
	producers int
	closes    int
}

// NewPriorityQueue creates a priority queue with a single producer
func NewPriorityQueue[T any]() *PriorityQueue[T] {
	return NewPriorityQueueWithProducers[T](1)
}

// NewPriorityQueueWithProducers creates a priority queue that is closed
// after producers calls to Close. Values below one are treated as one.
func NewPriorityQueueWithProducers[T any](producers int) *PriorityQueue[T] {
	if producers < 1 {
		producers = 1
	}

	q := &PriorityQueue[T]{
		heap:      make(indexedHeap[T], 0),
		producers: producers,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push adds an item and wakes blocked consumers
func (q *PriorityQueue[T]) Push(item Indexed[T]) {
	q.mu.Lock()
	heap.Push(&q.heap, item)
	q.mu.Unlock()

	q.cond.Broadcast()
}

// Close records one producer's tombstone
func (q *PriorityQueue[T]) Close() {
	q.mu.Lock()
	q.closes++
	q.mu.Unlock()

	q.cond.Broadcast()
}

// Closed reports whether every producer has closed the queue
func (q *PriorityQueue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed()
}

func (q *PriorityQueue[T]) closed() bool {
	return q.closes >= q.producers
}

// Pop blocks until an item is available and removes the lowest index.
// It returns false once the queue is closed and empty.
func (q *PriorityQueue[T]) Pop() (Indexed[T], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.heap) == 0 && !q.closed() {
		q.cond.Wait()
	}
	if len(q.heap) == 0 {
		return Indexed[T]{}, false
	}

	return heap.Pop(&q.heap).(Indexed[T]), true
}

// PopIndex blocks until the lowest queued index equals idx, then removes and
// returns that item. It returns false once the queue is closed and the
// requested item is not at the head, so a waiter is never stuck after
// shutdown.
func (q *PriorityQueue[T]) PopIndex(idx uint64) (Indexed[T], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.headIs(idx) {
		if q.closed() {
			return Indexed[T]{}, false
		}
		q.cond.Wait()
	}

	return heap.Pop(&q.heap).(Indexed[T]), true
}

func (q *PriorityQueue[T]) headIs(idx uint64) bool {
	return len(q.heap) > 0 && q.heap[0].Index == idx
}

// Front blocks until an item is available and returns the lowest index
// without removing it. It returns false once the queue is closed and empty.
func (q *PriorityQueue[T]) Front() (Indexed[T], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.heap) == 0 && !q.closed() {
		q.cond.Wait()
	}
	if len(q.heap) == 0 {
		return Indexed[T]{}, false
	}

	return q.heap[0], true
}

// Size returns the number of queued items
func (q *PriorityQueue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.heap)
}
