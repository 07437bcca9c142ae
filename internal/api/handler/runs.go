package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/timmy/mediafind/internal/service"
)

// RunsHandler exposes ingestion run history.
type RunsHandler struct {
	queryService *service.QueryService
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(queryService *service.QueryService) *RunsHandler {
	return &RunsHandler{
		queryService: queryService,
	}
}

// ListRuns handles GET /api/v1/runs, newest runs first.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *RunsHandler) ListRuns(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	runs, err := h.queryService.ListRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list runs: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"total": len(runs),
	})
}
