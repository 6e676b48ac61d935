package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thanhnp/utxo-indexer/internal/apperr"
	"github.com/thanhnp/utxo-indexer/internal/balance"
	"github.com/thanhnp/utxo-indexer/internal/gate"
	"github.com/thanhnp/utxo-indexer/internal/ingest"
	"github.com/thanhnp/utxo-indexer/internal/metrics"
	"github.com/thanhnp/utxo-indexer/internal/rollback"
)

const ttlHeader = "x-block-ttl"

// Handlers holds the services a request dispatches to. It is
// constructed once at startup and injected into the router (spec §9:
// "construction-time injection... rather than global lookup").
type Handlers struct {
	gate       *gate.Gate
	defaultTTL time.Duration
	ingestor   *ingest.Ingestor
	rollback   *rollback.Engine
	balance    *balance.Reader
	metrics    *metrics.Recorder
}

// New creates Handlers wired to the given services.
func New(g *gate.Gate, defaultTTL time.Duration, ig *ingest.Ingestor, rb *rollback.Engine, bal *balance.Reader, m *metrics.Recorder) *Handlers {
	return &Handlers{gate: g, defaultTTL: defaultTTL, ingestor: ig, rollback: rb, balance: bal, metrics: m}
}

// resolveTTL applies spec §6's x-block-ttl override, reporting a 400
// itself (via ok=false) rather than a typed apperr.Kind, since "caller
// error before reaching the gate" is explicitly out of the gate's
// remit (spec §4.5).
func resolveTTL(c *gin.Context, defaultTTL time.Duration) (time.Duration, bool) {
	raw := c.GetHeader(ttlHeader)
	if raw == "" {
		return defaultTTL, true
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid x-block-ttl header value"})
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}

func (h *Handlers) writeErr(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	loggerFrom(c).Error().Err(err).Str("kind", string(kind)).Msg("request failed")
	c.JSON(statusFor(kind), gin.H{"error": err.Error()})
}

// PostBlocks implements POST /blocks (spec §6).
func (h *Handlers) PostBlocks(c *gin.Context) {
	ttl, ok := resolveTTL(c, h.defaultTTL)
	if !ok {
		return
	}

	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	var wire blockWire
	if err := dec.Decode(&wire); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	block, err := wire.toDomain()
	if err != nil {
		h.writeErr(c, err)
		return
	}

	release, err := h.gate.Acquire(c.Request.Context(), ttl)
	if err != nil {
		h.metrics.ObserveGateTimeout()
		h.writeErr(c, err)
		return
	}
	defer release()

	logger := loggerFrom(c)
	if err := h.ingestor.ProcessBlock(c.Request.Context(), logger, block); err != nil {
		h.metrics.ObserveIngest(false)
		h.writeErr(c, err)
		return
	}
	h.metrics.ObserveIngest(true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetBalance implements GET /balance/:address (spec §6).
func (h *Handlers) GetBalance(c *gin.Context) {
	address := c.Param("address")
	bal, err := h.balance.Balance(c.Request.Context(), address)
	if err != nil {
		h.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": bal})
}

// PostRollback implements POST /rollback?height=N (spec §6).
func (h *Handlers) PostRollback(c *gin.Context) {
	ttl, ok := resolveTTL(c, h.defaultTTL)
	if !ok {
		return
	}

	heightStr := c.Query("height")
	target, err := strconv.ParseInt(heightStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid height"})
		return
	}

	release, err := h.gate.Acquire(c.Request.Context(), ttl)
	if err != nil {
		h.metrics.ObserveGateTimeout()
		h.writeErr(c, err)
		return
	}
	defer release()

	logger := loggerFrom(c)
	if err := h.rollback.RollbackToHeight(c.Request.Context(), logger, target); err != nil {
		h.metrics.ObserveRollback(false)
		h.writeErr(c, err)
		return
	}
	h.metrics.ObserveRollback(true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetHealth implements GET / (spec §6, supplemented with tip height).
func (h *Handlers) GetHealth(c *gin.Context) {
	tip, err := h.balance.Tip(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "tip": tip})
}
