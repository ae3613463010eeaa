package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskhub/taskhub/internal/config"
	"github.com/taskhub/taskhub/internal/domain/stats"
	"github.com/taskhub/taskhub/internal/http/middlewares"
)

type StatsSummarizer interface {
	Summarize(ctx context.Context, userID string) (stats.Summary, error)
}

type StatsHandler struct {
	repo StatsSummarizer
}

func NewStatsHandler(repo StatsSummarizer) *StatsHandler {
	return &StatsHandler{repo: repo}
}

func (h *StatsHandler) GetStats(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	summary, err := h.repo.Summarize(cctx, userID)

	if err != nil {
		RespondInternal(ctx, "Could not compute stats")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"stats": summary})
}
