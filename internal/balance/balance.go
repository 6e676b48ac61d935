// Package balance implements the Balance Reader (spec §4.3, component
// C5): an unserialized read path over the UTXO store.
package balance

import (
	"context"

	"github.com/thanhnp/utxo-indexer/internal/store"
)

// Reader answers balance queries directly against the store, without
// acquiring the Serialization Gate (spec §4.5: "a read request
// bypasses C2 and consults C1 directly").
type Reader struct {
	store store.Store
}

// New creates a Reader bound to the given store.
func New(s store.Store) *Reader {
	return &Reader{store: s}
}

// Balance returns the sum of unspent output values at address.
func (r *Reader) Balance(ctx context.Context, address string) (int64, error) {
	return r.store.Balance(ctx, address)
}

// Tip returns the current chain height, for the health endpoint.
func (r *Reader) Tip(ctx context.Context) (int64, error) {
	return r.store.Tip(ctx)
}
