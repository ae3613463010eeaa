package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskhub/taskhub/internal/config"
)

// Pinger is what readiness needs from the database pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Healthz only says the process is up.
func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz additionally checks the database so load balancers stop routing to
// an instance that lost its pool.
func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.db != nil {
		cctx, cancel := config.WithTimeout(2 * time.Second)
		defer cancel()

		if err := h.db.Ping(cctx); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unready",
				"reason": "database unreachable",
			})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}
