// Package httpapi is the boundary adapter (spec §6): it decodes
// wire requests, drives the core services, and maps apperr.Kind onto
// the HTTP status table the spec defines.
package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router wraps the Gin engine with the indexer's four API routes plus
// GET /metrics, in the teacher's Router-struct style.
type Router struct {
	engine   *gin.Engine
	handlers *Handlers
}

// NewRouter builds a Router with middleware and routes installed.
func NewRouter(h *Handlers) *Router {
	gin.SetMode(gin.ReleaseMode)

	r := &Router{
		engine:   gin.New(),
		handlers: h,
	}

	r.engine.Use(Recovery(), RequestID(), Logger())
	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	r.engine.GET("/", r.handlers.GetHealth)
	r.engine.POST("/blocks", r.handlers.PostBlocks)
	r.engine.GET("/balance/:address", r.handlers.GetBalance)
	r.engine.POST("/rollback", r.handlers.PostRollback)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Engine returns the underlying Gin engine.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
