// Package barrier provides a single-use rendezvous latch
package barrier

import (
	"fmt"
	"sync"

	"github.com/jzx17/seqpool/pkg/types"
)

// Barrier blocks a fixed number of participants until all of them have
// arrived, then releases them together. It is not reset once drained.
type Barrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	count   int
	arrived int
}

// New creates a barrier expecting count participants
func New(count int) (*Barrier, error) {
	if count < 0 {
		return nil, fmt.Errorf("barrier count must not be negative, got %d: %w", count, types.ErrInvalidInput)
	}

	b := &Barrier{count: count}
	b.cond = sync.NewCond(&b.mu)
	return b, nil
}

// Wait registers the caller's arrival and blocks until the count reaches
// zero. Calling Wait on a released barrier panics.
func (b *Barrier) Wait() {
	b.mu.Lock()
	if b.count == 0 {
		b.mu.Unlock()
		panic(types.UsageError("barrier: wait", types.ErrBarrierReleased))
	}

	b.count--
	b.arrived++
	if b.count == 0 {
		b.mu.Unlock()
		b.cond.Broadcast()
		return
	}

	for b.count > 0 {
		b.cond.Wait()
	}
	b.mu.Unlock()
}

// Count returns the number of participants still expected
func (b *Barrier) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// IncreaseCount expects n more participants. Only legal before release.
func (b *Barrier) IncreaseCount(n int) error {
	if n < 0 {
		return fmt.Errorf("increase must not be negative, got %d: %w", n, types.ErrInvalidInput)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released() {
		return types.ErrBarrierReleased
	}
	b.count += n
	return nil
}

// SetCount re-arms the barrier with count participants. Only legal before
// release and before any participant has arrived.
func (b *Barrier) SetCount(count int) error {
	if count < 0 {
		return fmt.Errorf("barrier count must not be negative, got %d: %w", count, types.ErrInvalidInput)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released() {
		return types.ErrBarrierReleased
	}
	if b.arrived > 0 {
		return types.ErrBarrierInUse
	}
	b.count = count
	return nil
}

// released reports whether participants arrived and drained the count.
// A barrier created with zero participants is not released until re-armed
// and drained. Callers must hold mu.
func (b *Barrier) released() bool {
	return b.arrived > 0 && b.count == 0
}
