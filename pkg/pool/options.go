package pool

import (
	"io"
	"log/slog"

	"github.com/jzx17/seqpool/pkg/types"
)

// settings holds the optional collaborators of a pool
type settings struct {
	logger       *slog.Logger
	clock        types.Clock
	errorHandler types.ErrorHandler
}

// Option configures an ExecutionPool
type Option = types.Option[*settings]

func defaultSettings() *settings {
	return &settings{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:  types.NewRealClock(),
	}
}

// WithLogger sets the structured logger. Logging is disabled by default.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the clock used to measure time spent in the user function
func WithClock(clock types.Clock) Option {
	return func(s *settings) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithErrorHandler sets the handler consulted for every failed item.
// Errors the handler returns nil for are not reported by Run.
func WithErrorHandler(handler types.ErrorHandler) Option {
	return func(s *settings) {
		s.errorHandler = handler
	}
}
