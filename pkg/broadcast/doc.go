/*
Package broadcast provides a single-producer, multi-subscriber queue where
every subscribed reader must see every message.

# Subscriptions

Readers register with Subscribe and receive a Subscriber handle that is passed
to Pop, Pending and Unsubscribe. The handle replaces any notion of ambient
goroutine identity, so one goroutine may hold several subscriptions and a
subscription may be handed to another goroutine.

A reader joining a non-empty queue first receives the most recently pushed
message and then everything pushed after it. A reader joining an empty queue
receives only later pushes.

# Eviction

Each reader owns a cursor into the retained sequence. A message stays in the
queue until the slowest reader has read it, and a departing reader releases
the messages only it still needed. Memory therefore tracks the lag of the
slowest reader; the queue is unbounded by design.

# Usage

	q := broadcast.New[int]()
	sub := q.Subscribe()

	go func() {
		for i := 0; i < 3; i++ {
			q.Push(i)
		}
		q.Close()
	}()

	for {
		v, ok := q.Pop(sub)
		if !ok {
			break
		}
		fmt.Println(v)
	}
	q.Unsubscribe(sub)

Calling Pop, Pending or Unsubscribe with a handle the queue does not know
panics with an error wrapping types.ErrNotSubscribed.
*/
package broadcast
