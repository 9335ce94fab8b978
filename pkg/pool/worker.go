package pool

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"

	"go.uber.org/multierr"

	"github.com/jzx17/seqpool/pkg/barrier"
	"github.com/jzx17/seqpool/pkg/queue"
	"github.com/jzx17/seqpool/pkg/types"
)

// Func is the user function applied to every input item
type Func[In, Out any] func(In) Out

// TransformFunc is a user function that may fail on an item
type TransformFunc[In, Out any] func(In) (Out, error)

// WorkerState defines the state of a Worker
type WorkerState int32

const (
	// WorkerStateIdle represents idle worker state
	WorkerStateIdle WorkerState = iota
	// WorkerStateWorking represents working worker state
	WorkerStateWorking
	// WorkerStateStopped represents stopped worker state
	WorkerStateStopped
)

// String returns the string representation of WorkerState
func (ws WorkerState) String() string {
	switch ws {
	case WorkerStateIdle:
		return "idle"
	case WorkerStateWorking:
		return "working"
	case WorkerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// outcome is what a worker reports for one sequence index
type outcome[Out any] struct {
	value Out
	err   error
}

// Worker takes tagged jobs from the shared job queue, applies the user
// function and files the result under the job's index. Workers compete for
// jobs, so results arrive in any order.
type Worker[In, Out any] struct {
	id      int
	state   int32 // atomic state
	jobs    *queue.WorkQueue[queue.Indexed[In]]
	results *queue.PriorityQueue[outcome[Out]]
	fn      TransformFunc[In, Out]
	startup *barrier.Barrier

	// errors not absorbed by errorHandler
	errs error

	errorHandler types.ErrorHandler
	clock        types.Clock
	stats        *runStats
	logger       *slog.Logger
}

func newWorker[In, Out any](
	id int,
	jobs *queue.WorkQueue[queue.Indexed[In]],
	results *queue.PriorityQueue[outcome[Out]],
	fn TransformFunc[In, Out],
	startup *barrier.Barrier,
	s *settings,
	stats *runStats,
	logger *slog.Logger,
) *Worker[In, Out] {
	return &Worker[In, Out]{
		id:           id,
		state:        int32(WorkerStateIdle),
		jobs:         jobs,
		results:      results,
		fn:           fn,
		startup:      startup,
		errorHandler: s.errorHandler,
		clock:        s.clock,
		stats:        stats,
		logger:       logger.With(slog.String("component", "worker"), slog.Int("worker_id", id)),
	}
}

// ID returns the Worker ID
func (w *Worker[In, Out]) ID() int {
	return w.id
}

// State returns the current Worker state
func (w *Worker[In, Out]) State() WorkerState {
	return WorkerState(atomic.LoadInt32(&w.state))
}

// Run waits for the startup barrier and processes jobs until it receives a
// tombstone, then closes its share of the result queue. It returns the
// failures the error handler did not absorb.
func (w *Worker[In, Out]) Run() error {
	w.startup.Wait()

	for {
		job, ok := w.jobs.Pop()
		if !ok {
			w.results.Close()
			atomic.StoreInt32(&w.state, int32(WorkerStateStopped))
			w.logger.Debug("worker stopped")
			return w.errs
		}
		w.process(job)
	}
}

// process applies the user function to a single job
func (w *Worker[In, Out]) process(job queue.Indexed[In]) {
	atomic.StoreInt32(&w.state, int32(WorkerStateWorking))
	defer atomic.StoreInt32(&w.state, int32(WorkerStateIdle))

	start := w.clock.Now()
	out, err := w.execute(job)
	w.stats.busy.Add(int64(w.clock.Since(start)))

	if err != nil {
		w.stats.failed.Add(1)
		w.handleError(job.Index, err)
		w.results.Push(queue.Indexed[outcome[Out]]{Index: job.Index, Value: outcome[Out]{err: err}})
		return
	}

	w.stats.processed.Add(1)
	w.results.Push(queue.Indexed[outcome[Out]]{Index: job.Index, Value: outcome[Out]{value: out}})
}

// execute runs the user function with panic recovery support
func (w *Worker[In, Out]) execute(job queue.Indexed[In]) (out Out, err error) {
	defer func() {
		if r := recover(); r != nil {
			// record panic information
			var buf [4096]byte
			n := runtime.Stack(buf[:], false)

			var cause error
			switch v := r.(type) {
			case error:
				cause = fmt.Errorf("panic: %w", v)
			default:
				cause = fmt.Errorf("panic: %v", v)
			}

			err = types.NewTypedPipelineError("worker", job.Value, cause).
				WithContext("stack_trace", string(buf[:n])).
				WithContext("worker_id", w.id).
				WithContext("index", job.Index)
		}
	}()

	out, err = w.fn(job.Value)
	if err != nil {
		err = types.NewTypedPipelineError("worker", job.Value, err).
			WithContext("worker_id", w.id).
			WithContext("index", job.Index)
	}
	return out, err
}

// handleError handles errors
func (w *Worker[In, Out]) handleError(idx uint64, err error) {
	if w.errorHandler != nil {
		if err = w.errorHandler(err); err == nil {
			w.logger.Debug("item failure handled", slog.Uint64("index", idx))
			return
		}
	}

	w.logger.Error("item failed", slog.Uint64("index", idx), slog.Any("error", err))
	w.errs = multierr.Append(w.errs, err)
}
