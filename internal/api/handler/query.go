package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/timmy/mediafind/internal/domain"
	"github.com/timmy/mediafind/internal/service"
)

// maxQueryImageBytes caps the accepted query image size.
const maxQueryImageBytes = 20 << 20

// QueryHandler handles reverse image query endpoints.
type QueryHandler struct {
	queryService *service.QueryService
}

// NewQueryHandler creates a new query handler.
// Parameters:
//   - queryService: query service instance.
// Returns:
//   - *QueryHandler: initialized handler.
func NewQueryHandler(queryService *service.QueryService) *QueryHandler {
	return &QueryHandler{
		queryService: queryService,
	}
}

// SearchImage handles POST /api/v1/search/image. The request carries
// one image as multipart field "image"; the response is the ranked
// link list, truncated to the "limit" query parameter. No qualifying
// match is an empty list with HTTP 200, not an error.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *QueryHandler) SearchImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Multipart field 'image' is required",
		})
		return
	}
	if file.Size > maxQueryImageBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "Image too large",
		})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read image: " + err.Error(),
		})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read image: " + err.Error(),
		})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	result, err := h.queryService.SearchImage(c.Request.Context(), data, limit)
	if err != nil {
		if errors.Is(err, domain.ErrDecodeFailure) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Unreadable image: " + err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Search failed: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetStats handles GET /api/v1/stats.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *QueryHandler) GetStats(c *gin.Context) {
	stats, err := h.queryService.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get stats: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, stats)
}
