package pool

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jzx17/seqpool/internal/testutils"
	"github.com/jzx17/seqpool/pkg/barrier"
	"github.com/jzx17/seqpool/pkg/broadcast"
	"github.com/jzx17/seqpool/pkg/queue"
	"github.com/jzx17/seqpool/pkg/types"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// released returns a barrier a single participant passes straight through
func released(t *testing.T) *barrier.Barrier {
	t.Helper()
	b, err := barrier.New(1)
	require.NoError(t, err)
	return b
}

func TestWorkerState_String(t *testing.T) {
	tests := []struct {
		state    WorkerState
		expected string
	}{
		{WorkerStateIdle, "idle"},
		{WorkerStateWorking, "working"},
		{WorkerStateStopped, "stopped"},
		{WorkerState(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.String())
		})
	}
}

func TestWorker_Run(t *testing.T) {
	jobs := queue.NewWorkQueue[queue.Indexed[int]]()
	results := queue.NewPriorityQueue[outcome[int]]()
	stats := &runStats{}

	w := newWorker(7, jobs, results, infallible(func(x int) int { return x * 2 }),
		released(t), defaultSettings(), stats, discard)
	assert.Equal(t, 7, w.ID())
	assert.Equal(t, WorkerStateIdle, w.State())

	// out of order indices are filed as they are
	jobs.Push(queue.Indexed[int]{Index: 2, Value: 5})
	jobs.Push(queue.Indexed[int]{Index: 0, Value: 1})
	jobs.Push(queue.Indexed[int]{Index: 1, Value: 3})
	jobs.Close()

	require.NoError(t, w.Run())
	assert.Equal(t, WorkerStateStopped, w.State())
	assert.True(t, results.Closed())
	assert.Equal(t, int64(3), stats.processed.Load())

	for i, want := range []int{2, 6, 10} {
		res, ok := results.PopIndex(uint64(i))
		require.True(t, ok)
		assert.NoError(t, res.Value.err)
		assert.Equal(t, want, res.Value.value)
	}
}

func TestWorker_LeavesRemainingJobsAfterTombstone(t *testing.T) {
	jobs := queue.NewWorkQueue[queue.Indexed[int]]()
	results := queue.NewPriorityQueueWithProducers[outcome[int]](2)

	w := newWorker(0, jobs, results, infallible(func(x int) int { return x }),
		released(t), defaultSettings(), &runStats{}, discard)

	jobs.Push(queue.Indexed[int]{Index: 0, Value: 1})
	jobs.Close()
	jobs.Push(queue.Indexed[int]{Index: 1, Value: 2})

	require.NoError(t, w.Run())

	// one of two producers closed, the queue stays open
	assert.False(t, results.Closed())
	assert.Equal(t, 1, results.Size())
	assert.Equal(t, 1, jobs.Size())
}

func TestWorker_Failures(t *testing.T) {
	errBoom := errors.New("boom")

	jobs := queue.NewWorkQueue[queue.Indexed[string]]()
	results := queue.NewPriorityQueue[outcome[string]]()
	stats := &runStats{}

	fn := func(s string) (string, error) {
		switch s {
		case "fail":
			return "", errBoom
		case "panic":
			panic(errBoom)
		}
		return s + "!", nil
	}

	w := newWorker(1, jobs, results, fn, released(t), defaultSettings(), stats, discard)

	jobs.Push(queue.Indexed[string]{Index: 0, Value: "ok"})
	jobs.Push(queue.Indexed[string]{Index: 1, Value: "fail"})
	jobs.Push(queue.Indexed[string]{Index: 2, Value: "panic"})
	jobs.Close()

	err := w.Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, int64(1), stats.processed.Load())
	assert.Equal(t, int64(2), stats.failed.Load())

	res, ok := results.PopIndex(0)
	require.True(t, ok)
	assert.Equal(t, "ok!", res.Value.value)

	res, ok = results.PopIndex(1)
	require.True(t, ok)
	var pipelineErr *types.TypedPipelineError[string]
	require.ErrorAs(t, res.Value.err, &pipelineErr)
	assert.Equal(t, "fail", pipelineErr.Input)
	assert.Equal(t, 1, pipelineErr.Context["worker_id"])
	assert.NotContains(t, pipelineErr.Context, "stack_trace")

	res, ok = results.PopIndex(2)
	require.True(t, ok)
	require.ErrorAs(t, res.Value.err, &pipelineErr)
	assert.Equal(t, "panic", pipelineErr.Input)
	assert.ErrorIs(t, res.Value.err, errBoom)
	assert.Contains(t, pipelineErr.Context, "stack_trace")
}

func TestWorker_BusyTime(t *testing.T) {
	clock := testutils.NewClockWrapper(testutils.NewMockClock(t))
	s := defaultSettings()
	WithClock(clock)(s)

	jobs := queue.NewWorkQueue[queue.Indexed[int]]()
	results := queue.NewPriorityQueue[outcome[int]]()
	stats := &runStats{}

	w := newWorker(0, jobs, results, infallible(func(x int) int {
		clock.Step(time.Duration(x) * time.Second)
		return x
	}), released(t), s, stats, discard)

	jobs.Push(queue.Indexed[int]{Index: 0, Value: 1})
	jobs.Push(queue.Indexed[int]{Index: 1, Value: 2})
	jobs.Close()

	require.NoError(t, w.Run())
	assert.Equal(t, 3*time.Second, stats.snapshot(1).BusyTime)
}

func TestJobTagger_Run(t *testing.T) {
	input := broadcast.New[string]()
	jobs := queue.NewWorkQueue[queue.Indexed[string]]()
	sequence := queue.NewWorkQueue[uint64]()
	stats := &runStats{}

	tagger := newJobTagger[string](input, jobs, sequence, 2, released(t), stats, discard)

	done := make(chan struct{})
	go func() {
		defer close(done)
		tagger.Run()
	}()
	assert.Eventually(t, func() bool { return input.Subscribers() == 1 }, time.Second, time.Millisecond)

	input.Push("a")
	input.Push("b")
	input.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tagger did not stop on closed input")
	}

	assert.Equal(t, uint64(2), tagger.Tagged())
	assert.Equal(t, int64(2), stats.tagged.Load())
	assert.Equal(t, 0, input.Subscribers())

	got := testutils.Drain(jobs.Pop)
	assert.Equal(t, []queue.Indexed[string]{{Index: 0, Value: "a"}, {Index: 1, Value: "b"}}, got)

	// one tombstone per worker; the first was consumed by Drain
	assert.Equal(t, 1, jobs.Size())
	_, ok := jobs.Pop()
	assert.False(t, ok)

	assert.Equal(t, []uint64{0, 1}, testutils.Drain(sequence.Pop))
	assert.Equal(t, 0, sequence.Size())
}

func TestReorderSorter_Run(t *testing.T) {
	sequence := queue.NewWorkQueue[uint64]()
	results := queue.NewPriorityQueue[outcome[int]]()
	output := broadcast.New[int]()
	stats := &runStats{}

	sink := output.Subscribe()
	defer output.Unsubscribe(sink)

	sorter := newReorderSorter(sequence, results, output, released(t), stats, discard)

	for i := uint64(0); i < 5; i++ {
		sequence.Push(i)
	}
	sequence.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		sorter.Run()
	}()

	// results arrive in reverse; index 3 failed and index 4 never arrives
	results.Push(queue.Indexed[outcome[int]]{Index: 3, Value: outcome[int]{err: errors.New("failed")}})
	results.Push(queue.Indexed[outcome[int]]{Index: 2, Value: outcome[int]{value: 20}})
	results.Push(queue.Indexed[outcome[int]]{Index: 1, Value: outcome[int]{value: 10}})
	results.Push(queue.Indexed[outcome[int]]{Index: 0, Value: outcome[int]{value: 0}})
	results.Close()

	got := testutils.Drain(func() (int, bool) { return output.Pop(sink) })
	assert.Equal(t, []int{0, 10, 20}, got)

	<-done
	assert.Equal(t, int64(3), stats.emitted.Load())
	assert.Equal(t, int64(2), stats.skipped.Load())
}

// recorder is a Producer that keeps what it was given
type recorder[T any] struct {
	mu     sync.Mutex
	items  []T
	closes int
}

func (r *recorder[T]) Push(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, item)
}

func (r *recorder[T]) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closes++
}

func TestJobTagger_WritesThroughProducers(t *testing.T) {
	input := broadcast.New[int]()
	jobs := &recorder[queue.Indexed[int]]{}
	sequence := &recorder[uint64]{}

	tagger := newJobTagger[int](input, jobs, sequence, 3, released(t), &runStats{}, discard)

	done := make(chan struct{})
	go func() {
		defer close(done)
		tagger.Run()
	}()
	assert.Eventually(t, func() bool { return input.Subscribers() == 1 }, time.Second, time.Millisecond)

	input.Push(10)
	input.Push(20)
	input.Push(30)
	input.Close()
	<-done

	assert.Equal(t, []queue.Indexed[int]{{Index: 0, Value: 10}, {Index: 1, Value: 20}, {Index: 2, Value: 30}}, jobs.items)
	assert.Equal(t, 3, jobs.closes)
	assert.Equal(t, []uint64{0, 1, 2}, sequence.items)
	assert.Equal(t, 1, sequence.closes)
}
