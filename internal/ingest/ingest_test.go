package ingest

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/thanhnp/utxo-indexer/internal/apperr"
	"github.com/thanhnp/utxo-indexer/internal/store/memory"
	"github.com/thanhnp/utxo-indexer/internal/utxo"
)

func discardLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func coinbaseBlock(height int64, txID, address string, value int64) *utxo.Block {
	tx := utxo.Transaction{
		ID:      txID,
		Inputs:  []utxo.Input{{TxID: "0", Index: 0}},
		Outputs: []utxo.Output{{Address: address, Value: value}},
	}
	block := &utxo.Block{Height: height, Transactions: []utxo.Transaction{tx}}
	block.ID = computeBlockID(block)
	return block
}

func TestProcessBlockCoinbaseThenSpend(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	ig := New(s)
	log := discardLogger()

	b1 := coinbaseBlock(1, "t1", "A", 5000000000)
	require.NoError(t, ig.ProcessBlock(ctx, log, b1))

	bal, err := s.Balance(ctx, "A")
	require.NoError(t, err)
	require.Equal(t, int64(5000000000), bal)

	spend := utxo.Transaction{
		ID:     "t2",
		Inputs: []utxo.Input{{TxID: "t1", Index: 0}},
		Outputs: []utxo.Output{
			{Address: "B", Value: 2000000000},
			{Address: "A", Value: 3000000000},
		},
	}
	b2 := &utxo.Block{Height: 2, Transactions: []utxo.Transaction{spend}}
	b2.ID = computeBlockID(b2)
	require.NoError(t, ig.ProcessBlock(ctx, log, b2))

	balA, err := s.Balance(ctx, "A")
	require.NoError(t, err)
	require.Equal(t, int64(3000000000), balA)

	balB, err := s.Balance(ctx, "B")
	require.NoError(t, err)
	require.Equal(t, int64(2000000000), balB)
}

func TestProcessBlockWrongHeightFails(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	ig := New(s)

	b := coinbaseBlock(6, "t1", "A", 1)
	err := ig.ProcessBlock(ctx, discardLogger(), b)
	require.True(t, apperr.Is(err, apperr.InvalidBlockHeight))
}

func TestProcessBlockSumMismatchFails(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	ig := New(s)
	log := discardLogger()

	b1 := coinbaseBlock(1, "t1", "A", 500000000)
	require.NoError(t, ig.ProcessBlock(ctx, log, b1))

	bad := utxo.Transaction{
		ID:      "t2",
		Inputs:  []utxo.Input{{TxID: "t1", Index: 0}},
		Outputs: []utxo.Output{{Address: "B", Value: 10000000000}},
	}
	b2 := &utxo.Block{Height: 2, Transactions: []utxo.Transaction{bad}}
	b2.ID = computeBlockID(b2)

	err := ig.ProcessBlock(ctx, log, b2)
	require.True(t, apperr.Is(err, apperr.InvalidInputOutputSum))
}

func TestProcessBlockBadBlockIDFails(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	ig := New(s)

	b := coinbaseBlock(1, "t1", "A", 1)
	b.ID = "invalid_block_id"

	err := ig.ProcessBlock(ctx, discardLogger(), b)
	require.True(t, apperr.Is(err, apperr.InvalidBlockID))
}

func TestProcessBlockRejectsSameBlockSiblingSpend(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	ig := New(s)

	coinbase := utxo.Transaction{
		ID:      "t1",
		Inputs:  []utxo.Input{{TxID: "0", Index: 0}},
		Outputs: []utxo.Output{{Address: "A", Value: 10}},
	}
	sibling := utxo.Transaction{
		ID:      "t2",
		Inputs:  []utxo.Input{{TxID: "t1", Index: 0}},
		Outputs: []utxo.Output{{Address: "B", Value: 10}},
	}
	b := &utxo.Block{Height: 1, Transactions: []utxo.Transaction{coinbase, sibling}}
	b.ID = computeBlockID(b)

	err := ig.ProcessBlock(ctx, discardLogger(), b)
	require.True(t, apperr.Is(err, apperr.InvalidInputOutputSum))
}

func TestProcessBlockMixedCoinbaseAndRegularInputsFails(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	ig := New(s)

	tx := utxo.Transaction{
		ID: "t1",
		Inputs: []utxo.Input{
			{TxID: "0", Index: 0},
			{TxID: "somereal", Index: 0},
		},
		Outputs: []utxo.Output{{Address: "A", Value: 10}},
	}
	b := &utxo.Block{Height: 1, Transactions: []utxo.Transaction{tx}}
	b.ID = computeBlockID(b)

	err := ig.ProcessBlock(ctx, discardLogger(), b)
	require.True(t, apperr.Is(err, apperr.InvalidInputOutputSum))
}

func TestCheckedAddRejectsOverflow(t *testing.T) {
	_, err := checkedAdd(1<<62, 1<<62)
	require.True(t, apperr.Is(err, apperr.InvalidInputOutputSum))
}

func TestCheckedAddRejectsNegative(t *testing.T) {
	_, err := checkedAdd(-1, 5)
	require.True(t, apperr.Is(err, apperr.InvalidInputOutputSum))
}
