package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/thanhnp/utxo-indexer/internal/balance"
	"github.com/thanhnp/utxo-indexer/internal/gate"
	"github.com/thanhnp/utxo-indexer/internal/ingest"
	"github.com/thanhnp/utxo-indexer/internal/metrics"
	"github.com/thanhnp/utxo-indexer/internal/rollback"
	"github.com/thanhnp/utxo-indexer/internal/store/memory"
)

func newTestRouter() *Router {
	s := memory.New()
	g := gate.New()
	reg := prometheus.NewRegistry()
	h := New(g, 5*time.Second, ingest.New(s), rollback.New(s), balance.New(s), metrics.New(reg))
	return NewRouter(h)
}

func do(r *Router, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, reqBody)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.Engine().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter()
	rec := do(r, http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func coinbaseBlockBody() map[string]any {
	return map[string]any{
		"id":     "",
		"height": 1,
		"transactions": []map[string]any{{
			"id":      "t1",
			"inputs":  []map[string]any{{"txId": "0", "index": 0}},
			"outputs": []map[string]any{{"address": "A", "value": 5000000000}},
		}},
	}
}

func TestPostBlocksBadBlockIDReturns400(t *testing.T) {
	r := newTestRouter()
	rec := do(r, http.MethodPost, "/blocks", coinbaseBlockBody(), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "InvalidBlockId")
}

func TestPostBlocksInvalidTTLHeaderReturns400(t *testing.T) {
	r := newTestRouter()
	rec := do(r, http.MethodPost, "/blocks", coinbaseBlockBody(), map[string]string{"x-block-ttl": "not-a-number"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Invalid x-block-ttl header value")
}

func TestGetBalanceUnknownAddressReturnsZero(t *testing.T) {
	r := newTestRouter()
	rec := do(r, http.MethodGet, "/balance/nobody", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"balance":0}`, rec.Body.String())
}

func TestPostRollbackEmptyChainReturns400(t *testing.T) {
	r := newTestRouter()
	rec := do(r, http.MethodPost, "/rollback?height=0", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "no blocks exist in the chain")
}

func TestPostRollbackInvalidHeightQueryReturns400(t *testing.T) {
	r := newTestRouter()
	rec := do(r, http.MethodPost, "/rollback?height=notanumber", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
