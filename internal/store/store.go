// Package store defines the UTXO repository contract (spec §4.4). Any
// implementation honoring this interface — the PostgreSQL-backed one
// in internal/store/postgres, or the in-memory one in
// internal/store/memory used by tests — is acceptable to the rest of
// the core, per spec §9's dependency-injection note.
package store

import (
	"context"

	"github.com/thanhnp/utxo-indexer/internal/utxo"
)

// Store is the UTXO repository contract of spec §4.4.
type Store interface {
	// Insert adds one UTXO record. Violating (txid, vout) uniqueness
	// is a DatabaseError.
	Insert(ctx context.Context, rec *utxo.Record) error

	// FindUnspent returns, for each ref that exists and is unspent,
	// its record. Missing or already-spent refs are simply absent
	// from the result; order is not guaranteed.
	FindUnspent(ctx context.Context, refs []utxo.Ref) ([]*utxo.Record, error)

	// MarkSpent marks (txid, vout) spent by spendingTxID. Returns
	// apperr.UTXONotFound if there is no such row, or it is already
	// spent.
	MarkSpent(ctx context.Context, txid string, vout int, spendingTxID string) error

	// Balance sums value over unspent records for the given address;
	// zero for an unknown address.
	Balance(ctx context.Context, address string) (int64, error)

	// Tip returns max(block_height) over all records, or 0 if empty.
	Tip(ctx context.Context) (int64, error)

	// FindAbove returns all records with block_height > h.
	FindAbove(ctx context.Context, h int64) ([]*utxo.Record, error)

	// UnspendBySpendingTxIDs clears spent/spent_txid/spent_at on every
	// record whose spent_txid is in ids. A no-op on an empty slice.
	UnspendBySpendingTxIDs(ctx context.Context, ids []string) error

	// DeleteAbove deletes every record with block_height > h.
	DeleteAbove(ctx context.Context, h int64) error
}

// Atomic is implemented by stores that can run the multi-step apply
// phases of ingest and rollback inside a single transaction (spec
// §4.1 "Atomicity": "if the store supports transactions, wrap the
// apply phase in one"). Stores that don't implement it are used
// directly, without a transaction. The in-memory fixture implements it
// without real rollback (see memory.Store.WithTx).
type Atomic interface {
	// WithTx runs fn against a Store bound to a single transaction,
	// committing on a nil return and rolling back otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
