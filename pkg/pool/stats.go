package pool

import (
	"sync/atomic"
	"time"

	"github.com/jzx17/seqpool/pkg/types"
)

// runStats are the counters of a single pipeline run
type runStats struct {
	tagged    atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
	emitted   atomic.Int64
	skipped   atomic.Int64
	busy      atomic.Int64 // nanoseconds
}

func (s *runStats) snapshot(workers int) types.PoolStats {
	return types.PoolStats{
		Workers:   workers,
		Tagged:    s.tagged.Load(),
		Processed: s.processed.Load(),
		Failed:    s.failed.Load(),
		Emitted:   s.emitted.Load(),
		Skipped:   s.skipped.Load(),
		BusyTime:  time.Duration(s.busy.Load()),
	}
}
