// Package types defines core interfaces and types shared by the queues,
// the barrier and the execution pool
package types

import (
	"time"
)

// Producer is the write side shared by the broadcast and work queues
type Producer[T any] interface {
	// Push appends an item
	Push(item T)

	// Close appends the end-of-stream tombstone
	Close()
}

// ErrorHandler defines an error handling function.
// Returning nil marks the error as handled; a non-nil return is kept and
// reported by the caller.
type ErrorHandler func(error) error

// Option defines a configuration option function
type Option[T any] func(T)

// PoolStats defines statistics of an execution pool run
type PoolStats struct {
	// Workers is the number of worker goroutines
	Workers int

	// Tagged is the number of input items that received a sequence index
	Tagged int64

	// Processed is the number of items the user function completed
	Processed int64

	// Failed is the number of items the user function failed on
	Failed int64

	// Emitted is the number of results pushed to the output queue
	Emitted int64

	// Skipped is the number of sequence slots retired without output
	Skipped int64

	// BusyTime is the total time workers spent inside the user function
	BusyTime time.Duration
}

// SuccessRate gets the ratio of processed items to attempted items
func (s PoolStats) SuccessRate() float64 {
	total := s.Processed + s.Failed
	if total == 0 {
		return 0
	}
	return float64(s.Processed) / float64(total)
}

// AverageBusyTime gets the mean time spent per attempted item
func (s PoolStats) AverageBusyTime() time.Duration {
	total := s.Processed + s.Failed
	if total == 0 {
		return 0
	}
	return s.BusyTime / time.Duration(total)
}
