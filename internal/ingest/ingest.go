// Package ingest implements the Block Validator & Ingestor (spec
// §4.1, component C3): validates a candidate block against the UTXO
// invariants of spec §3 and, only if every check passes, applies its
// effects to the store.
package ingest

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"github.com/thanhnp/utxo-indexer/internal/apperr"
	"github.com/thanhnp/utxo-indexer/internal/store"
	"github.com/thanhnp/utxo-indexer/internal/utxo"
)

// Ingestor runs processBlock (spec §4.1) against a store.Store. It
// does not itself serialize access — the caller must hold the
// Serialization Gate (component C2) before calling ProcessBlock.
type Ingestor struct {
	store store.Store
}

// New creates an Ingestor bound to the given store.
func New(s store.Store) *Ingestor {
	return &Ingestor{store: s}
}

// ProcessBlock validates block in the fixed order of spec §4.1 (a)
// height, (b) conservation, (c) block identity — any failure leaves
// the store unchanged — then applies its effects.
func (ig *Ingestor) ProcessBlock(ctx context.Context, log *zerolog.Logger, block *utxo.Block) error {
	if err := ig.validateHeight(ctx, block); err != nil {
		return err
	}
	if err := ig.validateConservation(ctx, block); err != nil {
		return err
	}
	if err := ig.validateBlockID(block); err != nil {
		return err
	}

	if err := ig.apply(ctx, block); err != nil {
		log.Error().Err(err).Int64("height", block.Height).Msg("failed to apply block")
		return err
	}
	return nil
}

// validateHeight is spec §4.1(a).
func (ig *Ingestor) validateHeight(ctx context.Context, block *utxo.Block) error {
	tip, err := ig.store.Tip(ctx)
	if err != nil {
		return apperr.Wrap(apperr.DatabaseError, err, "failed to read tip")
	}

	if block.Height != tip+1 {
		return apperr.Newf(apperr.InvalidBlockHeight, "observed height %d, expected %d", block.Height, tip+1)
	}
	return nil
}

// validateConservation is spec §4.1(b). Every lookup runs before any
// write for this block, so it necessarily observes pre-block state —
// including rejecting a transaction that spends a sibling output
// created earlier in the same block (spec §9).
func (ig *Ingestor) validateConservation(ctx context.Context, block *utxo.Block) error {
	for _, tx := range block.Transactions {
		hasCoinbase, hasRegular := false, false
		for _, in := range tx.Inputs {
			if isCoinbase(in.TxID) {
				hasCoinbase = true
			} else {
				hasRegular = true
			}
		}

		if hasCoinbase && hasRegular {
			return apperr.New(apperr.InvalidInputOutputSum, "transaction mixes coinbase and regular inputs")
		}
		if hasCoinbase {
			continue // coinbase transactions may output any value
		}
		if len(tx.Inputs) == 0 {
			sum, err := sumOutputsChecked(tx.Outputs)
			if err != nil {
				return err
			}
			if sum != 0 {
				return apperr.New(apperr.InvalidInputOutputSum, "zero-input transaction must have zero output sum")
			}
			continue
		}

		refs := make([]utxo.Ref, len(tx.Inputs))
		for i, in := range tx.Inputs {
			refs[i] = utxo.Ref{TxID: pad64(in.TxID), Vout: in.Index}
		}

		found, err := ig.store.FindUnspent(ctx, refs)
		if err != nil {
			return apperr.Wrap(apperr.DatabaseError, err, "failed to look up referenced utxos")
		}
		if len(found) != len(refs) {
			return apperr.New(apperr.InvalidInputOutputSum, "referenced utxo is missing or already spent")
		}

		inputSum, err := sumValues(found)
		if err != nil {
			return err
		}
		outputSum, err := sumOutputsChecked(tx.Outputs)
		if err != nil {
			return err
		}
		if inputSum != outputSum {
			return apperr.New(apperr.InvalidInputOutputSum, "input and output sums do not match")
		}
	}
	return nil
}

// validateBlockID is spec §4.1(c).
func (ig *Ingestor) validateBlockID(block *utxo.Block) error {
	expected := computeBlockID(block)
	if block.ID != expected {
		return apperr.Newf(apperr.InvalidBlockID, "observed id %s, expected %s", block.ID, expected)
	}
	return nil
}

// apply is spec §4.1's apply phase. It wraps itself in a store
// transaction when the store supports one (spec §4.1 "Atomicity").
func (ig *Ingestor) apply(ctx context.Context, block *utxo.Block) error {
	run := func(ctx context.Context, s store.Store) error {
		for _, tx := range block.Transactions {
			paddedTxID := pad64(tx.ID)

			for _, in := range tx.Inputs {
				if isCoinbase(in.TxID) {
					continue
				}
				if err := s.MarkSpent(ctx, pad64(in.TxID), in.Index, paddedTxID); err != nil {
					if apperr.Is(err, apperr.UTXONotFound) {
						// Unreachable under the single-writer gate
						// (spec §9); if a validated input vanished
						// between validation and apply, that is a
						// store-level fault.
						return apperr.Wrap(apperr.DatabaseError, err, "utxo vanished between validation and apply")
					}
					return apperr.Wrap(apperr.DatabaseError, err, "failed to mark utxo spent")
				}
			}

			for i, out := range tx.Outputs {
				rec := &utxo.Record{
					TxID:         paddedTxID,
					Vout:         i,
					Address:      out.Address,
					Value:        out.Value,
					BlockHeight:  block.Height,
					ScriptPubkey: "",
				}
				if err := s.Insert(ctx, rec); err != nil {
					return apperr.Wrap(apperr.DatabaseError, err, "failed to insert utxo")
				}
			}
		}
		return nil
	}

	if atomicStore, ok := ig.store.(store.Atomic); ok {
		return atomicStore.WithTx(ctx, run)
	}
	return run(ctx, ig.store)
}

func sumOutputsChecked(outs []utxo.Output) (int64, error) {
	var total int64
	var err error
	for _, o := range outs {
		total, err = checkedAdd(total, o.Value)
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}

func sumValues(recs []*utxo.Record) (int64, error) {
	var total int64
	var err error
	for _, r := range recs {
		total, err = checkedAdd(total, r.Value)
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}

// checkedAdd sums a and b, rejecting negative operands and detecting
// int64 overflow before it happens (spec §3/§9: value "fits in 63
// bits" and must be bounds-checked "where the platform lacks
// arbitrary-precision addition"). An overflowing sum can never
// legitimately equal another 63-bit value, so reporting it as a
// conservation failure is conservative, not a relaxation of spec
// semantics.
func checkedAdd(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, apperr.New(apperr.InvalidInputOutputSum, "negative value is not representable")
	}
	if a > math.MaxInt64-b {
		return 0, apperr.New(apperr.InvalidInputOutputSum, "value sum overflows 63-bit range")
	}
	return a + b, nil
}
