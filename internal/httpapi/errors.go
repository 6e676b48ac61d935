package httpapi

import (
	"net/http"

	"github.com/thanhnp/utxo-indexer/internal/apperr"
)

// statusFor maps an apperr.Kind to the HTTP status spec §6 assigns
// it. UTXONotFound should never reach the boundary directly (spec §7:
// ingest maps it to InvalidInputOutputSum during validation, or to
// DatabaseError if it somehow surfaces from apply); it is mapped here
// only so the table itself stays exhaustive, as spec §6 lists it.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.InvalidBlockHeight,
		apperr.InvalidInputOutputSum,
		apperr.InvalidBlockID,
		apperr.InvalidRollbackHeight,
		apperr.NoBlocksToRollback:
		return http.StatusBadRequest
	case apperr.MutexTimeout:
		return http.StatusRequestTimeout
	case apperr.UTXONotFound:
		return http.StatusNotFound
	case apperr.DatabaseError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
