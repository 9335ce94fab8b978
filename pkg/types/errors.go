// Package types defines error types
package types

import (
	"errors"
	"fmt"
)

// Predefined errors
var (
	// ErrInvalidInput indicates invalid input
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotSubscribed indicates a broadcast queue call made with a subscriber
	// that was never registered or has already unsubscribed
	ErrNotSubscribed = errors.New("subscriber is not registered")

	// ErrBarrierReleased indicates the barrier count already reached zero
	ErrBarrierReleased = errors.New("barrier already released")

	// ErrBarrierInUse indicates participants already arrived at the barrier
	ErrBarrierInUse = errors.New("barrier has waiting participants")

	// ErrPoolRunning indicates the execution pool is already running
	ErrPoolRunning = errors.New("execution pool is already running")
)

// TypedPipelineError represents a type-safe Pipeline processing error
type TypedPipelineError[T any] struct {
	// Operation is the name of the operation where the error occurred
	Operation string

	// Input is the input data that caused the error (type-safe)
	Input T

	// Cause is the underlying error
	Cause error

	// Context contains error context information
	Context map[string]interface{}
}

// Error implements the error interface
func (e *TypedPipelineError[T]) Error() string {
	return fmt.Sprintf("pipeline error in operation %s: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying error
func (e *TypedPipelineError[T]) Unwrap() error {
	return e.Cause
}

// Is checks if the error is a specific error
func (e *TypedPipelineError[T]) Is(target error) bool {
	return errors.Is(e.Cause, target)
}

// NewTypedPipelineError creates a new type-safe Pipeline error
func NewTypedPipelineError[T any](operation string, input T, cause error) *TypedPipelineError[T] {
	return &TypedPipelineError[T]{
		Operation: operation,
		Input:     input,
		Cause:     cause,
		Context:   make(map[string]interface{}),
	}
}

// WithContext adds error context
func (e *TypedPipelineError[T]) WithContext(key string, value interface{}) *TypedPipelineError[T] {
	e.Context[key] = value
	return e
}

// UsageError builds the value a primitive panics with when its contract is
// violated. The result wraps sentinel so errors.Is works on the recovered value.
func UsageError(op string, sentinel error) error {
	return fmt.Errorf("%s: %w", op, sentinel)
}
