// Package utxo holds the data model shared by the store, ingestor,
// rollback engine, and balance query: the UTXO record of spec §3 and
// the block/transaction shapes accepted from the wire.
package utxo

import "time"

// Record is one UTXO record as described in spec §3. TxID is always
// the producing transaction id right-padded with '0' (or truncated) to
// 64 characters; its characters are taken from the wire as-is and are
// not checked to be hex. Vout is the 0-based output index within it.
type Record struct {
	TxID          string
	Vout          int
	Address       string
	Value         int64
	BlockHeight   int64
	Spent         bool
	SpentTxID     string
	SpentAt       *time.Time
	CreatedAt     time.Time
	ScriptPubkey  string // always "" (spec §9: preserved, never populated)
}

// Ref identifies a UTXO by its producing transaction and output index,
// the key used for lookups during conservation checking (spec §4.1b).
type Ref struct {
	TxID string
	Vout int
}

// Input is a transaction input as accepted from the wire (spec §6).
type Input struct {
	TxID  string
	Index int
}

// Output is a transaction output as accepted from the wire (spec §6).
type Output struct {
	Address string
	Value   int64
}

// Transaction is one transaction within a candidate block.
type Transaction struct {
	ID      string
	Inputs  []Input
	Outputs []Output
}

// Block is a candidate block as accepted by processBlock (spec §4.1).
type Block struct {
	ID           string
	Height       int64
	Transactions []Transaction
}
