package pool

import (
	"log/slog"

	"github.com/jzx17/seqpool/pkg/barrier"
	"github.com/jzx17/seqpool/pkg/broadcast"
	"github.com/jzx17/seqpool/pkg/queue"
	"github.com/jzx17/seqpool/pkg/types"
)

// JobTagger reads the input stream, tags every item with the next sequence
// index and hands it to the workers. The index is also recorded in the
// sequence queue so the sorter knows the order to emit results in.
type JobTagger[T any] struct {
	input    *broadcast.Queue[T]
	jobs     types.Producer[queue.Indexed[T]]
	sequence types.Producer[uint64]
	workers  int
	startup  *barrier.Barrier
	next     uint64

	stats  *runStats
	logger *slog.Logger
}

func newJobTagger[T any](
	input *broadcast.Queue[T],
	jobs types.Producer[queue.Indexed[T]],
	sequence types.Producer[uint64],
	workers int,
	startup *barrier.Barrier,
	stats *runStats,
	logger *slog.Logger,
) *JobTagger[T] {
	return &JobTagger[T]{
		input:    input,
		jobs:     jobs,
		sequence: sequence,
		workers:  workers,
		startup:  startup,
		stats:    stats,
		logger:   logger.With(slog.String("component", "tagger")),
	}
}

// Run subscribes to the input, waits for the startup barrier and tags items
// until the input is closed. On close every worker receives its own
// tombstone.
func (t *JobTagger[T]) Run() {
	sub := t.input.Subscribe()
	defer t.input.Unsubscribe(sub)

	t.startup.Wait()

	for {
		item, ok := t.input.Pop(sub)
		if !ok {
			for i := 0; i < t.workers; i++ {
				t.jobs.Close()
			}
			t.sequence.Close()
			t.logger.Debug("input closed", slog.Uint64("tagged", t.next))
			return
		}

		idx := t.next
		t.next++

		t.jobs.Push(queue.Indexed[T]{Index: idx, Value: item})
		t.sequence.Push(idx)
		t.stats.tagged.Add(1)
	}
}

// Tagged returns the number of indices handed out. Only valid once Run
// has returned.
func (t *JobTagger[T]) Tagged() uint64 {
	return t.next
}
