package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inviteforge/inviteforge/internal/services"
	appErrors "github.com/inviteforge/inviteforge/pkg/errors"
	"github.com/inviteforge/inviteforge/pkg/response"
)

// StatsHandler exposes the admin overview counters.
type StatsHandler struct {
	stats *services.StatsService
}

func NewStatsHandler(stats *services.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// GET /api/stats
func (h *StatsHandler) Overview(c *gin.Context) {
	overview, err := h.stats.Overview(requestContext(c))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, "stats aggregation failed"))
		return
	}

	response.Success(c, http.StatusOK, overview)
}
