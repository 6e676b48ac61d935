// Package memory implements the store.Store contract entirely in
// process memory. It is the fixture spec §9 calls for: "testing uses
// an in-memory implementation of the store contract."
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/thanhnp/utxo-indexer/internal/apperr"
	"github.com/thanhnp/utxo-indexer/internal/store"
	"github.com/thanhnp/utxo-indexer/internal/utxo"
)

type key struct {
	txid string
	vout int
}

// Store is an in-memory, mutex-guarded implementation of store.Store.
type Store struct {
	mu      sync.Mutex
	records map[key]*utxo.Record
}

var (
	_ store.Store  = (*Store)(nil)
	_ store.Atomic = (*Store)(nil)
)

// New creates an empty Store.
func New() *Store {
	return &Store{records: make(map[key]*utxo.Record)}
}

func (s *Store) Insert(_ context.Context, rec *utxo.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{rec.TxID, rec.Vout}
	if _, exists := s.records[k]; exists {
		return apperr.Newf(apperr.DatabaseError, "duplicate utxo (%s, %d)", rec.TxID, rec.Vout)
	}

	cp := *rec
	s.records[k] = &cp
	return nil
}

func (s *Store) FindUnspent(_ context.Context, refs []utxo.Ref) ([]*utxo.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*utxo.Record
	for _, ref := range refs {
		rec, ok := s.records[key{ref.TxID, ref.Vout}]
		if !ok || rec.Spent {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) MarkSpent(_ context.Context, txid string, vout int, spendingTxID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key{txid, vout}]
	if !ok || rec.Spent {
		return apperr.New(apperr.UTXONotFound, "utxo not found or already spent")
	}

	now := time.Now().UTC()
	rec.Spent = true
	rec.SpentTxID = spendingTxID
	rec.SpentAt = &now
	return nil
}

func (s *Store) Balance(_ context.Context, address string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, rec := range s.records {
		if rec.Address == address && !rec.Spent {
			total += rec.Value
		}
	}
	return total, nil
}

func (s *Store) Tip(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var max int64
	for _, rec := range s.records {
		if rec.BlockHeight > max {
			max = rec.BlockHeight
		}
	}
	return max, nil
}

func (s *Store) FindAbove(_ context.Context, h int64) ([]*utxo.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*utxo.Record
	for _, rec := range s.records {
		if rec.BlockHeight > h {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) UnspendBySpendingTxIDs(_ context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	for _, rec := range s.records {
		if rec.Spent {
			if _, ok := set[rec.SpentTxID]; ok {
				rec.Spent = false
				rec.SpentTxID = ""
				rec.SpentAt = nil
			}
		}
	}
	return nil
}

func (s *Store) DeleteAbove(_ context.Context, h int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, rec := range s.records {
		if rec.BlockHeight > h {
			delete(s.records, k)
		}
	}
	return nil
}

// WithTx satisfies store.Atomic trivially by running fn directly
// against s. Each call above holds the mutex only for its own
// duration, and nothing is rolled back: changes fn made before
// returning an error stay in the store.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return fn(ctx, s)
}
