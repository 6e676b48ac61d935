package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/thanhnp/utxo-indexer/internal/utxo"
)

// computeBlockID implements spec §4.1c: sha256hex(decimal(height) ++
// concat(pad64(tx.id) for tx in transactions)), UTF-8 byte input,
// lowercase hex digest. crypto/sha256 is the standard library's
// implementation of a fixed, non-negotiable algorithm named by the
// spec itself — there is no ecosystem hashing library in the pack
// that would change or improve on this, so the standard library is
// the correct and only choice here (see DESIGN.md).
func computeBlockID(block *utxo.Block) string {
	var sb strings.Builder
	sb.WriteString(strconv.FormatInt(block.Height, 10))
	for _, tx := range block.Transactions {
		sb.WriteString(pad64(tx.ID))
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}
