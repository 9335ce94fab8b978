package pool

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/jzx17/seqpool/pkg/barrier"
	"github.com/jzx17/seqpool/pkg/broadcast"
	"github.com/jzx17/seqpool/pkg/queue"
	"github.com/jzx17/seqpool/pkg/types"
)

// ExecutionPool applies a user function to every item of an input broadcast
// queue on a fixed number of workers and emits the results on an output
// broadcast queue in input order.
type ExecutionPool[In, Out any] struct {
	input  *broadcast.Queue[In]
	output *broadcast.Queue[Out]
	config *Config
	*settings

	running int32
	stats   atomic.Pointer[runStats]
}

// New creates an execution pool between input and output
func New[In, Out any](input *broadcast.Queue[In], output *broadcast.Queue[Out], config *Config, opts ...Option) (*ExecutionPool[In, Out], error) {
	if input == nil || output == nil {
		return nil, fmt.Errorf("input and output queues are required: %w", types.ErrInvalidInput)
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := defaultSettings()
	for _, opt := range opts {
		opt(s)
	}

	p := &ExecutionPool[In, Out]{
		input:    input,
		output:   output,
		config:   config,
		settings: s,
	}
	p.stats.Store(&runStats{})
	return p, nil
}

// Workers returns the number of worker goroutines per run
func (p *ExecutionPool[In, Out]) Workers() int {
	return p.config.Workers
}

// IsRunning checks if a run is in progress
func (p *ExecutionPool[In, Out]) IsRunning() bool {
	return atomic.LoadInt32(&p.running) == 1
}

// Stats returns the counters of the current or most recent run
func (p *ExecutionPool[In, Out]) Stats() types.PoolStats {
	return p.stats.Load().snapshot(p.config.Workers)
}

// Run processes the input until it is closed and drained, closes the output
// and returns. Extra arguments for fn are captured in its closure.
func (p *ExecutionPool[In, Out]) Run(fn Func[In, Out]) error {
	if fn == nil {
		return fmt.Errorf("function is required: %w", types.ErrInvalidInput)
	}
	return p.run(nil, infallible(fn))
}

// RunWithBarrier is Run that additionally waits on an external barrier once
// the pool's own stages are subscribed and ready, so the caller can line up
// sources and sinks with the pool.
func (p *ExecutionPool[In, Out]) RunWithBarrier(b *barrier.Barrier, fn Func[In, Out]) error {
	if err := checkExternal(b); err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("function is required: %w", types.ErrInvalidInput)
	}
	return p.run(b, infallible(fn))
}

// RunE is Run for a function that may fail. Failed items are left out of
// the output and the failures not absorbed by the error handler are
// returned together.
func (p *ExecutionPool[In, Out]) RunE(fn TransformFunc[In, Out]) error {
	if fn == nil {
		return fmt.Errorf("function is required: %w", types.ErrInvalidInput)
	}
	return p.run(nil, fn)
}

// RunEWithBarrier combines RunE and RunWithBarrier
func (p *ExecutionPool[In, Out]) RunEWithBarrier(b *barrier.Barrier, fn TransformFunc[In, Out]) error {
	if err := checkExternal(b); err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("function is required: %w", types.ErrInvalidInput)
	}
	return p.run(b, fn)
}

func (p *ExecutionPool[In, Out]) run(external *barrier.Barrier, fn TransformFunc[In, Out]) error {
	if !atomic.CompareAndSwapInt32(&p.running, 0, 1) {
		return types.ErrPoolRunning
	}
	defer atomic.StoreInt32(&p.running, 0)

	workers := p.config.Workers
	logger := p.logger.With(slog.String("pool", p.config.Name))

	// workers, tagger, sorter and this goroutine
	startup, err := barrier.New(workers + 3)
	if err != nil {
		return err
	}

	jobs := queue.NewWorkQueue[queue.Indexed[In]]()
	sequence := queue.NewWorkQueue[uint64]()
	results := queue.NewPriorityQueueWithProducers[outcome[Out]](workers)

	stats := &runStats{}
	p.stats.Store(stats)

	tagger := newJobTagger[In](p.input, jobs, sequence, workers, startup, stats, logger)
	sorter := newReorderSorter(sequence, results, p.output, startup, stats, logger)

	var g errgroup.Group
	g.Go(func() error {
		tagger.Run()
		return nil
	})

	// per worker, so every failure is reported and not just the first
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		w := newWorker(i, jobs, results, fn, startup, p.settings, stats, logger)
		g.Go(func() error {
			errs[i] = w.Run()
			return errs[i]
		})
	}

	g.Go(func() error {
		sorter.Run()
		return nil
	})

	startup.Wait()
	if external != nil {
		external.Wait()
	}

	start := p.clock.Now()
	logger.Debug("execution pool started", slog.Int("workers", workers))

	if err := g.Wait(); err != nil {
		logger.Warn("execution pool finished with failures",
			slog.Int64("failed", stats.failed.Load()),
			slog.Any("error", err))
	}

	logger.Debug("execution pool finished",
		slog.Int64("tagged", stats.tagged.Load()),
		slog.Int64("emitted", stats.emitted.Load()),
		slog.Duration("elapsed", p.clock.Since(start)))

	return multierr.Combine(errs...)
}

// checkExternal rejects a missing barrier and one that can no longer be
// waited on. Must run before any stage starts.
func checkExternal(b *barrier.Barrier) error {
	if b == nil {
		return fmt.Errorf("barrier is required: %w", types.ErrInvalidInput)
	}
	if b.Count() == 0 {
		return fmt.Errorf("external barrier: %w", types.ErrBarrierReleased)
	}
	return nil
}

// infallible adapts a plain function to TransformFunc
func infallible[In, Out any](fn Func[In, Out]) TransformFunc[In, Out] {
	return func(in In) (Out, error) {
		return fn(in), nil
	}
}
