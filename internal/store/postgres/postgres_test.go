package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/thanhnp/utxo-indexer/internal/apperr"
	"github.com/thanhnp/utxo-indexer/internal/utxo"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &Store{db: sqlx.NewDb(db, "postgres")}, mock
}

func TestInsertExecutesExpectedQuery(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO utxos").
		WithArgs("a", 0, "addr1", int64(10), int64(1)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.Insert(ctx, &utxo.Record{TxID: "a", Vout: 0, Address: "addr1", Value: 10, BlockHeight: 1})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSpentNoRowsAffectedReturnsUTXONotFound(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec("UPDATE utxos SET spent = true").
		WithArgs("spender", "a", 0).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.MarkSpent(ctx, "a", 0, "spender")
	require.True(t, apperr.Is(err, apperr.UTXONotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBalanceQueriesSumOfUnspent(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"coalesce"}).AddRow(int64(42))
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(value\\), 0\\) FROM utxos").
		WithArgs("addr1").
		WillReturnRows(rows)

	bal, err := s.Balance(ctx, "addr1")
	require.NoError(t, err)
	require.Equal(t, int64(42), bal)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTipQueriesMaxHeight(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"coalesce"}).AddRow(int64(7))
	mock.ExpectQuery("SELECT COALESCE\\(MAX\\(block_height\\), 0\\) FROM utxos").
		WillReturnRows(rows)

	tip, err := s.Tip(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(7), tip)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAboveExecutesExpectedQuery(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM utxos WHERE block_height > \\$1").
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, s.DeleteAbove(ctx, 2))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnspendBySpendingTxIDsSkipsEmptySet(t *testing.T) {
	s, mock := newMockStore(t)
	require.NoError(t, s.UnspendBySpendingTxIDs(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}
