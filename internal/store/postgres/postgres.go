// Package postgres implements the UTXO repository contract (spec
// §4.4) on top of PostgreSQL, in the style of bitcoin-sv-arc's
// background_jobs/jobs store code: sqlx over the lib/pq driver,
// context-scoped queries, no ORM.
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/thanhnp/utxo-indexer/internal/apperr"
	"github.com/thanhnp/utxo-indexer/internal/store"
	"github.com/thanhnp/utxo-indexer/internal/utxo"
)

const driverName = "postgres"

// Store is the PostgreSQL-backed store.Store implementation.
type Store struct {
	db queryer
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx, letting the same
// query methods run either directly or inside WithTx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

var (
	_ store.Store  = (*Store)(nil)
	_ store.Atomic = (*Store)(nil)
)

// Open connects to PostgreSQL at dsn, retrying with exponential
// backoff (bitcoin-sv-arc's dependency, wired here for startup
// resilience against a database that isn't ready yet) before giving
// up, then ensures the schema from Migrate exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	var db *sqlx.DB
	connect := func() error {
		conn, err := sqlx.Open(driverName, dsn)
		if err != nil {
			return err
		}
		if err := conn.PingContext(ctx); err != nil {
			conn.Close()
			return err
		}
		db = conn
		return nil
	}

	boff := backoff.NewExponentialBackOff()
	boff.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(connect, boff); err != nil {
		return nil, apperr.Wrap(apperr.DatabaseError, err, "failed to connect to postgres")
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	if err := Migrate(ctx, db.DB); err != nil {
		db.Close()
		return nil, err
	}

	log.Info().Msg("connected to postgres")
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool, if this Store owns
// one directly (it does not when it's a transaction-bound view
// produced by WithTx).
func (s *Store) Close() error {
	if db, ok := s.db.(*sqlx.DB); ok {
		return db.Close()
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, rec *utxo.Record) error {
	const q = `
		INSERT INTO utxos (txid, vout, address, value, block_height, spent, spent_txid, spent_at, created_at, script_pubkey)
		VALUES ($1, $2, $3, $4, $5, false, NULL, NULL, now(), '')`

	if _, err := s.db.ExecContext(ctx, q, rec.TxID, rec.Vout, rec.Address, rec.Value, rec.BlockHeight); err != nil {
		if isUniqueViolation(err) {
			return apperr.Wrap(apperr.DatabaseError, err, "duplicate utxo")
		}
		return apperr.Wrap(apperr.DatabaseError, err, "failed to insert utxo")
	}
	return nil
}

func (s *Store) FindUnspent(ctx context.Context, refs []utxo.Ref) ([]*utxo.Record, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	const q = `
		SELECT txid, vout, address, value, block_height, spent, spent_txid, spent_at, created_at, script_pubkey
		FROM utxos WHERE txid = $1 AND vout = $2 AND spent = false`

	var out []*utxo.Record
	for _, ref := range refs {
		var row utxoRow
		err := s.db.GetContext(ctx, &row, q, ref.TxID, ref.Vout)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.DatabaseError, err, "failed to query unspent utxo")
		}
		out = append(out, row.toRecord())
	}
	return out, nil
}

func (s *Store) MarkSpent(ctx context.Context, txid string, vout int, spendingTxID string) error {
	const q = `
		UPDATE utxos SET spent = true, spent_txid = $1, spent_at = now()
		WHERE txid = $2 AND vout = $3 AND spent = false`

	res, err := s.db.ExecContext(ctx, q, spendingTxID, txid, vout)
	if err != nil {
		return apperr.Wrap(apperr.DatabaseError, err, "failed to mark utxo spent")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Wrap(apperr.DatabaseError, err, "failed to read rows affected")
	}
	if n == 0 {
		return apperr.New(apperr.UTXONotFound, "utxo not found or already spent")
	}
	return nil
}

func (s *Store) Balance(ctx context.Context, address string) (int64, error) {
	const q = `SELECT COALESCE(SUM(value), 0) FROM utxos WHERE address = $1 AND spent = false`

	var total int64
	if err := s.db.GetContext(ctx, &total, q, address); err != nil {
		return 0, apperr.Wrap(apperr.DatabaseError, err, "failed to compute balance")
	}
	return total, nil
}

func (s *Store) Tip(ctx context.Context) (int64, error) {
	const q = `SELECT COALESCE(MAX(block_height), 0) FROM utxos`

	var tip int64
	if err := s.db.GetContext(ctx, &tip, q); err != nil {
		return 0, apperr.Wrap(apperr.DatabaseError, err, "failed to compute tip")
	}
	return tip, nil
}

func (s *Store) FindAbove(ctx context.Context, h int64) ([]*utxo.Record, error) {
	const q = `
		SELECT txid, vout, address, value, block_height, spent, spent_txid, spent_at, created_at, script_pubkey
		FROM utxos WHERE block_height > $1`

	var rows []utxoRow
	if err := s.db.SelectContext(ctx, &rows, q, h); err != nil {
		return nil, apperr.Wrap(apperr.DatabaseError, err, "failed to query utxos above height")
	}

	out := make([]*utxo.Record, len(rows))
	for i := range rows {
		out[i] = rows[i].toRecord()
	}
	return out, nil
}

func (s *Store) UnspendBySpendingTxIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	const q = `
		UPDATE utxos SET spent = false, spent_txid = NULL, spent_at = NULL
		WHERE spent = true AND spent_txid = ANY($1)`

	if _, err := s.db.ExecContext(ctx, q, stringArray(ids)); err != nil {
		return apperr.Wrap(apperr.DatabaseError, err, "failed to unspend utxos")
	}
	return nil
}

func (s *Store) DeleteAbove(ctx context.Context, h int64) error {
	const q = `DELETE FROM utxos WHERE block_height > $1`

	if _, err := s.db.ExecContext(ctx, q, h); err != nil {
		return apperr.Wrap(apperr.DatabaseError, err, "failed to delete utxos above height")
	}
	return nil
}

// WithTx runs fn against a Store bound to a single SQL transaction,
// satisfying spec §4.1's "if the store supports transactions, wrap
// the apply phase in one."
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	db, ok := s.db.(*sqlx.DB)
	if !ok {
		return fn(ctx, s)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.DatabaseError, err, "failed to begin transaction")
	}

	if err := fn(ctx, &Store{db: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("failed to roll back transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.DatabaseError, err, "failed to commit transaction")
	}
	return nil
}
