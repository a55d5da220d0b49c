package handlers

import (
	"context"
	"net/http"

	"github.com/DebasishBarai/remind-me/db"
	"github.com/gin-gonic/gin"
)

type StatsReader interface {
	StatsOverview(ctx context.Context, userID string) (*db.Overview, error)
}

type StatsHandler struct {
	store StatsReader
}

func NewStatsHandler(store StatsReader) *StatsHandler {
	return &StatsHandler{store: store}
}

// Read-only overview stats
func (h *StatsHandler) Overview(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	stats, err := h.store.StatsOverview(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to load stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}
