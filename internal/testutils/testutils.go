// Package testutils provides simplified testing utilities and helper functions
package testutils

import (
	"math/rand"
	"sync"
	"time"
)

// Drain calls pop until it reports end of stream and returns what it read
func Drain[T any](pop func() (T, bool)) []T {
	var out []T
	for {
		v, ok := pop()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

// Jitter produces random sleeps so concurrent stages finish out of order
type Jitter struct {
	mu  sync.Mutex
	rnd *rand.Rand
	max time.Duration
}

// NewJitter creates a seeded jitter source sleeping up to max per call
func NewJitter(seed int64, max time.Duration) *Jitter {
	return &Jitter{
		rnd: rand.New(rand.NewSource(seed)),
		max: max,
	}
}

// Sleep blocks for a random duration in [0, max)
func (j *Jitter) Sleep() {
	if j.max <= 0 {
		return
	}

	j.mu.Lock()
	d := time.Duration(j.rnd.Int63n(int64(j.max)))
	j.mu.Unlock()

	time.Sleep(d)
}

// Sequence returns 0..n-1
func Sequence(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
