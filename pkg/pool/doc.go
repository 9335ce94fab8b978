/*
Package pool provides an ordered parallel execution pool built from the
broadcast queue, the work queues and the barrier.

# Overview

An ExecutionPool reads every item of an input broadcast queue, applies a user
function to it on a fixed number of worker goroutines and pushes the results
to an output broadcast queue in exactly the order the inputs arrived,
whatever order the workers finish in.

# Core Components

## JobTagger

Subscribes to the input queue and tags each item with a dense sequence index
starting at zero:
  - the tagged item goes to the shared job queue
  - the bare index goes to the sequence queue
  - on end of input, one tombstone per worker plus one for the sequence queue

## Worker

Competes with the other workers for jobs on the shared job queue, applies the
user function and files the result under the job's index in a priority queue.
Panics in the user function are recovered and reported as
*types.TypedPipelineError values carrying the stack trace.

## ReorderSorter

Pops the next expected index from the sequence queue and blocks on the result
queue until exactly that index is available, so early completions are held
back. Results of failed items retire their slot without output. When the
sequence queue ends the output queue is closed.

# Startup

All stages and the calling goroutine meet on an internal barrier sized
workers+3 before any work starts, which guarantees the tagger is subscribed to
the input before Run proceeds. RunWithBarrier then also waits on a caller
supplied barrier, letting sources and sinks start only once the pool is ready.
A barrier that is already released is rejected with types.ErrBarrierReleased
before anything starts.

# Usage Examples

Basic usage:

	input := broadcast.New[int]()
	output := broadcast.New[int]()

	p, err := pool.New(input, output, &pool.Config{Workers: 3})
	if err != nil {
		log.Fatal(err)
	}

	ready, _ := barrier.New(2)
	go func() {
		ready.Wait()
		for i := 0; i < 10; i++ {
			input.Push(i)
		}
		input.Close()
	}()

	sink := output.Subscribe()
	go func() {
		defer output.Unsubscribe(sink)
		for {
			v, ok := output.Pop(sink)
			if !ok {
				return
			}
			fmt.Println(v)
		}
	}()

	err = p.RunWithBarrier(ready, func(x int) int { return x + 1 })

Functions that may fail:

	err := p.RunE(func(x int) (int, error) {
		if x < 0 {
			return 0, errors.New("negative input")
		}
		return x * 2, nil
	})

# Configuration Options

Config supports the following fields, also loadable from the environment with
LoadConfig:
  - Workers: number of worker goroutines (WORKERS, default 4)
  - Name: pool name attached to log records (NAME, default "seqpool")

Functional options:
  - WithLogger: structured logger, disabled by default
  - WithClock: clock used for busy time statistics
  - WithErrorHandler: absorbs or keeps per-item failures
*/
package pool
