package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/timmy/mediafind/internal/config"
	"github.com/timmy/mediafind/internal/domain"
	"github.com/timmy/mediafind/internal/logger"
	"github.com/timmy/mediafind/internal/repository"
	"github.com/timmy/mediafind/internal/service"
	"github.com/timmy/mediafind/internal/source"
	"github.com/timmy/mediafind/internal/source/localdir"
	"github.com/timmy/mediafind/internal/storage"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "mediafind-ingest",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	channel := flag.String("channel", "", "Channel name to ingest (defaults to ingest.channel from config)")
	sourcePath := flag.String("path", "", "Local export directory (defaults to ingest.source_path from config)")
	budgetMB := flag.Int64("budget", 0, "Byte budget in MB, overrides config; 0 keeps the configured value")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	if *channel == "" {
		*channel = cfg.Ingest.Channel
	}
	if *sourcePath == "" {
		*sourcePath = cfg.Ingest.SourcePath
	}
	byteBudget := cfg.Ingest.ByteBudget()
	if *budgetMB > 0 {
		byteBudget = *budgetMB * 1024 * 1024
	}

	appLogger.WithFields(logger.Fields{
		"channel":     *channel,
		"path":        *sourcePath,
		"byte_budget": byteBudget,
		"store_kind":  cfg.Store.Kind,
	}).Info("Starting ingestion")

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

	// Optional keyframe archive
	var archive storage.ObjectStorage
	if cfg.Archive.Enabled {
		archive, err = storage.NewStorage(&storage.S3Config{
			Type:      storage.StorageTypeS3Compatible,
			Endpoint:  cfg.Archive.Endpoint,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			UseSSL:    cfg.Archive.UseSSL,
			Bucket:    cfg.Archive.Bucket,
			Region:    cfg.Archive.Region,
			PublicURL: cfg.Archive.PublicURL,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize keyframe archive")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if archive != nil {
		if err := archive.EnsureBucket(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure archive bucket")
		}
	}

	ingestService := service.NewIngestService(
		mediaRepo,
		fpRepo,
		runRepo,
		source.NewStillSampler(),
		embedder,
		archive,
		appLogger,
		&service.IngestConfig{
			BatchSize:  cfg.Ingest.BatchSize,
			ByteBudget: byteBudget,
		},
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	// Run ingestion
	src := localdir.NewAdapter(*sourcePath, *channel)
	run, err := ingestService.Run(ctx, src)
	if err != nil {
		appLogger.WithError(err).Fatal("Ingestion run failed")
	}
	appLogger.WithFields(logger.Fields{
		"status":    string(run.Status),
		"processed": run.ProcessedItems,
		"skipped":   run.SkippedItems,
		"failed":    run.FailedItems,
		"frames":    run.InsertedFrames,
		"bytes":     run.ConsumedBytes,
	}).Info("Ingestion run finished")
}
