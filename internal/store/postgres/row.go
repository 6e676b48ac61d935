package postgres

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/thanhnp/utxo-indexer/internal/utxo"
)

// utxoRow is the sqlx scan target for the utxos table, mirroring the
// nullable spent_* columns spec §3 describes.
type utxoRow struct {
	TxID         string         `db:"txid"`
	Vout         int            `db:"vout"`
	Address      string         `db:"address"`
	Value        int64          `db:"value"`
	BlockHeight  int64          `db:"block_height"`
	Spent        bool           `db:"spent"`
	SpentTxID    sql.NullString `db:"spent_txid"`
	SpentAt      sql.NullTime   `db:"spent_at"`
	CreatedAt    time.Time      `db:"created_at"`
	ScriptPubkey string         `db:"script_pubkey"`
}

func (r *utxoRow) toRecord() *utxo.Record {
	rec := &utxo.Record{
		TxID:         r.TxID,
		Vout:         r.Vout,
		Address:      r.Address,
		Value:        r.Value,
		BlockHeight:  r.BlockHeight,
		Spent:        r.Spent,
		CreatedAt:    r.CreatedAt,
		ScriptPubkey: r.ScriptPubkey,
	}
	if r.SpentTxID.Valid {
		rec.SpentTxID = r.SpentTxID.String
	}
	if r.SpentAt.Valid {
		t := r.SpentAt.Time
		rec.SpentAt = &t
	}
	return rec
}

// stringArray adapts a []string for use with PostgreSQL's ANY($1)
// array operator, via the lib/pq array helper.
func stringArray(ss []string) any {
	return pq.Array(ss)
}

// isUniqueViolation reports whether err is a PostgreSQL unique
// constraint violation (code 23505).
func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == "23505"
}
