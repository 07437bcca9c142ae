package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/mediafind/internal/api/handler"
	"github.com/timmy/mediafind/internal/api/middleware"
	"github.com/timmy/mediafind/internal/logger"
	"github.com/timmy/mediafind/internal/service"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	queryService *service.QueryService,
	log *logger.Logger,
	corsCfg middleware.CORSConfig,
	mode string,
) *gin.Engine {
	// Set Gin mode
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(corsCfg))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	queryHandler := handler.NewQueryHandler(queryService)
	runsHandler := handler.NewRunsHandler(queryService)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Reverse image search
		v1.POST("/search/image", queryHandler.SearchImage)

		// Ingestion runs
		v1.GET("/runs", runsHandler.ListRuns)

		// Stats
		v1.GET("/stats", queryHandler.GetStats)
	}

	return r
}
