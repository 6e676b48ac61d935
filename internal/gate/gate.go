// Package gate implements the Serialization Gate (spec §4.5): a
// process-wide mutual-exclusion primitive with a timed acquire that
// admits exactly one writer — ingest or rollback — at a time, while
// leaving balance reads unserialized.
package gate

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/thanhnp/utxo-indexer/internal/apperr"
)

// Gate is a single-holder mutex with a bounded wait, backed by a
// weighted semaphore of size 1 (golang.org/x/sync/semaphore grants
// queued acquires in arrival order, giving the FIFO waiter ordering
// spec §4.5 requires without a hand-rolled queue).
type Gate struct {
	sem *semaphore.Weighted
}

// New creates an unheld Gate.
func New() *Gate {
	return &Gate{sem: semaphore.NewWeighted(1)}
}

// Release is returned by Acquire; call it exactly once to hand the
// gate to the next waiter. Calling it twice is a programmer error; a
// second call is ignored and does not release the gate again.
type Release func()

// Acquire blocks until the gate is free or ttl elapses, whichever
// comes first. ttl must be a positive duration; validating the raw
// caller-supplied value (spec §4.5: "ttl ≤ 0 or non-numeric is
// caller-error") is the boundary's job, not this package's.
func (g *Gate) Acquire(ctx context.Context, ttl time.Duration) (Release, error) {
	ctx, cancel := context.WithTimeout(ctx, ttl)
	defer cancel()

	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, apperr.New(apperr.MutexTimeout, "timed out waiting for the serialization gate")
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		g.sem.Release(1)
	}, nil
}
