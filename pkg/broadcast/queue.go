package broadcast

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jzx17/seqpool/pkg/types"
)

// Subscriber is the handle returned by Subscribe and passed to every read
type Subscriber struct {
	id uuid.UUID
}

// ID returns the subscriber identity
func (s Subscriber) ID() uuid.UUID {
	return s.id
}

// String returns the subscriber identity as text
func (s Subscriber) String() string {
	return s.id.String()
}

// entry holds either a message or the end-of-stream tombstone
type entry[T any] struct {
	value  T
	closed bool
}

// Queue is a single-producer, multi-subscriber queue. Every subscriber reads
// every message pushed while it is subscribed, in push order. Messages are
// evicted from the front once no subscriber still needs them.
type Queue[T any] struct {
	mu   sync.Mutex
	cond *sync.Cond

	// items[0] sits at absolute position base
	items []entry[T]
	base  uint64

	// absolute position of each subscriber's next read
	cursors map[uuid.UUID]uint64
}

// New creates an empty broadcast queue
func New[T any]() *Queue[T] {
	q := &Queue[T]{
		cursors: make(map[uuid.UUID]uint64),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Subscribe registers a new reader. On a non-empty queue the reader starts
// at the most recently pushed message, so a late joiner never waits for the
// next push to receive something.
func (q *Queue[T]) Subscribe() Subscriber {
	s := Subscriber{id: uuid.New()}

	q.mu.Lock()
	defer q.mu.Unlock()

	next := q.tail()
	if len(q.items) > 0 {
		next--
	}
	q.cursors[s.id] = next

	return s
}

// Unsubscribe removes the reader. Messages only it still needed are evicted.
// Unsubscribing an unknown reader panics.
func (q *Queue[T]) Unsubscribe(s Subscriber) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.cursors[s.id]; !ok {
		panic(types.UsageError("broadcast: unsubscribe", types.ErrNotSubscribed))
	}
	delete(q.cursors, s.id)
	q.evict()
}

// Push appends a message for every current subscriber. Without subscribers
// the message is dropped.
func (q *Queue[T]) Push(item T) {
	q.push(entry[T]{value: item})
}

// Close appends the end-of-stream tombstone under the same rules as Push
func (q *Queue[T]) Close() {
	q.push(entry[T]{closed: true})
}

func (q *Queue[T]) push(e entry[T]) {
	q.mu.Lock()
	if len(q.cursors) == 0 {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, e)
	q.mu.Unlock()

	q.cond.Broadcast()
}

// Pop blocks until the subscriber has an unread message and returns it.
// The boolean is false once the subscriber reads the tombstone; it should
// then Unsubscribe. Popping with an unknown reader panics.
func (q *Queue[T]) Pop(s Subscriber) (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	next := q.cursor("broadcast: pop", s)
	for next == q.tail() {
		q.cond.Wait()
		next = q.cursor("broadcast: pop", s)
	}

	e := q.items[next-q.base]
	q.cursors[s.id] = next + 1
	q.evict()

	return e.value, !e.closed
}

// Pending returns the number of messages the subscriber has not read yet
func (q *Queue[T]) Pending(s Subscriber) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return int(q.tail() - q.cursor("broadcast: pending", s))
}

// Len returns the number of retained messages
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Subscribers returns the number of registered readers
func (q *Queue[T]) Subscribers() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.cursors)
}

// String dumps the retained messages and the pending counts, slowest first
func (q *Queue[T]) String() string {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending := make([]int, 0, len(q.cursors))
	for _, next := range q.cursors {
		pending = append(pending, int(q.tail()-next))
	}
	slices.Sort(pending)
	slices.Reverse(pending)

	var b strings.Builder
	b.WriteString("[")
	for i, e := range q.items {
		if i > 0 {
			b.WriteString(" ")
		}
		if e.closed {
			b.WriteString("<closed>")
		} else {
			fmt.Fprintf(&b, "%v", e.value)
		}
	}
	b.WriteString("]")

	return fmt.Sprintf("broadcast.Queue{items: %s, pending: %v}", b.String(), pending)
}

// cursor looks up the subscriber's read position. Callers must hold mu.
func (q *Queue[T]) cursor(op string, s Subscriber) uint64 {
	next, ok := q.cursors[s.id]
	if !ok {
		panic(types.UsageError(op, types.ErrNotSubscribed))
	}
	return next
}

// tail is the absolute position one past the newest message
func (q *Queue[T]) tail() uint64 {
	return q.base + uint64(len(q.items))
}

// evict drops every message the slowest subscriber has already read, or all
// of them when nobody is subscribed. Callers must hold mu.
func (q *Queue[T]) evict() {
	oldest := q.tail()
	for _, next := range q.cursors {
		oldest = min(oldest, next)
	}

	n := int(oldest - q.base)
	if n <= 0 {
		return
	}

	clear(q.items[:n])
	q.items = q.items[n:]
	q.base = oldest
}
