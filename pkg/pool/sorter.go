package pool

import (
	"log/slog"

	"github.com/jzx17/seqpool/pkg/barrier"
	"github.com/jzx17/seqpool/pkg/broadcast"
	"github.com/jzx17/seqpool/pkg/queue"
)

// ReorderSorter emits worker results in the order their inputs arrived. It
// walks the sequence queue and waits on the result queue for exactly the
// next expected index, holding back anything that completed early.
type ReorderSorter[Out any] struct {
	sequence *queue.WorkQueue[uint64]
	results  *queue.PriorityQueue[outcome[Out]]
	output   *broadcast.Queue[Out]
	startup  *barrier.Barrier

	stats  *runStats
	logger *slog.Logger
}

func newReorderSorter[Out any](
	sequence *queue.WorkQueue[uint64],
	results *queue.PriorityQueue[outcome[Out]],
	output *broadcast.Queue[Out],
	startup *barrier.Barrier,
	stats *runStats,
	logger *slog.Logger,
) *ReorderSorter[Out] {
	return &ReorderSorter[Out]{
		sequence: sequence,
		results:  results,
		output:   output,
		startup:  startup,
		stats:    stats,
		logger:   logger.With(slog.String("component", "sorter")),
	}
}

// Run waits for the startup barrier and forwards results until the sequence
// queue is closed, then closes the output queue. Failed items retire their
// slot without producing output.
func (s *ReorderSorter[Out]) Run() {
	s.startup.Wait()

	for {
		idx, ok := s.sequence.Pop()
		if !ok {
			s.output.Close()
			s.logger.Debug("sequence closed",
				slog.Int64("emitted", s.stats.emitted.Load()),
				slog.Int64("skipped", s.stats.skipped.Load()))
			return
		}

		res, ok := s.results.PopIndex(idx)
		if !ok {
			s.stats.skipped.Add(1)
			s.logger.Warn("result missing after workers closed", slog.Uint64("index", idx))
			continue
		}
		if res.Value.err != nil {
			s.stats.skipped.Add(1)
			continue
		}

		s.output.Push(res.Value.value)
		s.stats.emitted.Add(1)
	}
}
