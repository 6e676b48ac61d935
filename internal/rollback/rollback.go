// Package rollback implements the Rollback Engine (spec §4.2,
// component C4): reverses every effect of the blocks above a target
// height.
package rollback

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/thanhnp/utxo-indexer/internal/apperr"
	"github.com/thanhnp/utxo-indexer/internal/store"
)

// Engine runs rollbackToHeight (spec §4.2) against a store.Store. Like
// ingest.Ingestor, it assumes the caller already holds the
// Serialization Gate.
type Engine struct {
	store store.Store
}

// New creates an Engine bound to the given store.
func New(s store.Store) *Engine {
	return &Engine{store: s}
}

// RollbackToHeight validates target against the current tip, then, if
// there is anything to remove, unspends and deletes in the order spec
// §4.2 requires.
func (e *Engine) RollbackToHeight(ctx context.Context, log *zerolog.Logger, target int64) error {
	if target < 0 {
		return apperr.Newf(apperr.InvalidRollbackHeight, "target height %d is negative", target)
	}

	tip, err := e.store.Tip(ctx)
	if err != nil {
		return apperr.Wrap(apperr.DatabaseError, err, "failed to read tip")
	}
	if target > tip {
		return apperr.Newf(apperr.InvalidRollbackHeight, "target height %d is above current tip %d", target, tip)
	}

	victims, err := e.store.FindAbove(ctx, target)
	if err != nil {
		return apperr.Wrap(apperr.DatabaseError, err, "failed to collect victims")
	}
	if len(victims) == 0 {
		if tip == 0 {
			return apperr.Newf(apperr.NoBlocksToRollback, "Cannot rollback to height %d: no blocks exist in the chain.", target)
		}
		return apperr.Newf(apperr.NoBlocksToRollback, "Cannot rollback to height %d: no blocks exist above this height. Current height is %d.", target, tip)
	}

	spendingTxIDs := make([]string, 0, len(victims))
	seen := make(map[string]bool, len(victims))
	for _, v := range victims {
		if !seen[v.TxID] {
			seen[v.TxID] = true
			spendingTxIDs = append(spendingTxIDs, v.TxID)
		}
	}

	run := func(ctx context.Context, s store.Store) error {
		if err := s.UnspendBySpendingTxIDs(ctx, spendingTxIDs); err != nil {
			return apperr.Wrap(apperr.DatabaseError, err, "failed to unspend victims' consumed utxos")
		}
		if err := s.DeleteAbove(ctx, target); err != nil {
			return apperr.Wrap(apperr.DatabaseError, err, "failed to delete utxos above target")
		}
		return nil
	}

	var applyErr error
	if atomicStore, ok := e.store.(store.Atomic); ok {
		applyErr = atomicStore.WithTx(ctx, run)
	} else {
		applyErr = run(ctx, e.store)
	}
	if applyErr != nil {
		log.Error().Err(applyErr).Int64("target", target).Msg("failed to roll back")
		return applyErr
	}
	return nil
}
