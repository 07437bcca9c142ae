package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/mediafind/internal/api"
	"github.com/timmy/mediafind/internal/api/middleware"
	"github.com/timmy/mediafind/internal/config"
	"github.com/timmy/mediafind/internal/domain"
	"github.com/timmy/mediafind/internal/logger"
	"github.com/timmy/mediafind/internal/matcher"
	"github.com/timmy/mediafind/internal/repository"
	"github.com/timmy/mediafind/internal/service"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.NewFromEnv(&logger.EnvConfig{
		ServiceName: "mediafind-api",
	})
	logger.SetDefaultLogger(appLogger)

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	storeKind := domain.FingerprintKind(cfg.Store.Kind)
	mediaRepo := repository.NewMediaRecordRepository(db)
	fpRepo := repository.NewFingerprintRepository(db, storeKind)
	runRepo := repository.NewIngestRunRepository(db)

	// Embedding provider is only needed for embedding stores
	var embedder service.EmbeddingProvider
	if storeKind == domain.KindEmbedding {
		if err := cfg.Embedding.Validate(); err != nil {
			appLogger.WithError(err).Fatal("Invalid embedding config")
		}
		embedder = service.NewEmbeddingService(&cfg.Embedding)
	}

	m := matcher.New(&matcher.Config{
		HashThreshold: cfg.Matcher.HashThreshold,
		Workers:       cfg.Matcher.Workers,
	})

	queryService := service.NewQueryService(
		mediaRepo,
		fpRepo,
		runRepo,
		m,
		embedder,
		appLogger,
		&service.QueryConfig{
			TopK: cfg.Matcher.TopK,
		},
	)

	// Setup router
	router := api.SetupRouter(queryService, appLogger, middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	}, cfg.Server.Mode)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port":       cfg.Server.Port,
			"mode":       cfg.Server.Mode,
			"store_kind": cfg.Store.Kind,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
