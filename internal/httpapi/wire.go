package httpapi

import (
	"encoding/json"

	"github.com/ccoveille/go-safecast"

	"github.com/thanhnp/utxo-indexer/internal/apperr"
	"github.com/thanhnp/utxo-indexer/internal/utxo"
)

// Wire types mirror spec §6's JSON schemas. Numeric fields are decoded
// as json.Number (the request decoder uses UseNumber) rather than
// through Go's default float64 JSON numbers, which would silently
// lose precision above 2^53 for values like satoshi counts. index and
// vout additionally narrow from the wire's int64 down to the
// platform's int via go-safecast, rather than a bare int(v) cast that
// would silently truncate on a 32-bit platform.

type blockWire struct {
	ID           string            `json:"id"`
	Height       json.Number       `json:"height"`
	Transactions []transactionWire `json:"transactions"`
}

type transactionWire struct {
	ID      string       `json:"id"`
	Inputs  []inputWire  `json:"inputs"`
	Outputs []outputWire `json:"outputs"`
}

type inputWire struct {
	TxID  string      `json:"txId"`
	Index json.Number `json:"index"`
}

type outputWire struct {
	Address string      `json:"address"`
	Value   json.Number `json:"value"`
}

func numberToInt64(n json.Number) (int64, error) {
	v, err := n.Int64()
	if err != nil {
		return 0, apperr.Newf(apperr.InvalidInputOutputSum, "non-integer field %q", n.String())
	}
	return v, nil
}

func numberToInt(n json.Number) (int, error) {
	v, err := numberToInt64(n)
	if err != nil {
		return 0, err
	}
	narrowed, err := safecast.ToInt(v)
	if err != nil {
		return 0, apperr.Newf(apperr.InvalidInputOutputSum, "field %q does not fit in an int: %v", n.String(), err)
	}
	return narrowed, nil
}

func (b *blockWire) toDomain() (*utxo.Block, error) {
	height, err := numberToInt64(b.Height)
	if err != nil {
		return nil, err
	}

	block := &utxo.Block{
		ID:           b.ID,
		Height:       height,
		Transactions: make([]utxo.Transaction, len(b.Transactions)),
	}
	for i, tx := range b.Transactions {
		inputs := make([]utxo.Input, len(tx.Inputs))
		for j, in := range tx.Inputs {
			index, err := numberToInt(in.Index)
			if err != nil {
				return nil, err
			}
			inputs[j] = utxo.Input{TxID: in.TxID, Index: index}
		}
		outputs := make([]utxo.Output, len(tx.Outputs))
		for j, out := range tx.Outputs {
			value, err := numberToInt64(out.Value)
			if err != nil {
				return nil, err
			}
			outputs[j] = utxo.Output{Address: out.Address, Value: value}
		}
		block.Transactions[i] = utxo.Transaction{ID: tx.ID, Inputs: inputs, Outputs: outputs}
	}
	return block, nil
}
