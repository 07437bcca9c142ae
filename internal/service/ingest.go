package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/mediafind/internal/domain"
	"github.com/timmy/mediafind/internal/fingerprint"
	"github.com/timmy/mediafind/internal/logger"
	"github.com/timmy/mediafind/internal/repository"
	"github.com/timmy/mediafind/internal/source"
	"github.com/timmy/mediafind/internal/storage"
)

// IngestService drives fingerprint extraction over incoming media items
// under a cumulative byte budget. One call to Run is one ingestion run:
// Idle → Running → {Completed, BudgetExceeded, Failed}.
//
// Per-item failures (corrupt image, zero-frame video, embedding
// inference error) are logged and skipped; only store unavailability
// moves the run to Failed. Fingerprints committed before a budget
// cutoff or failure stay persisted, there is no rollback.
type IngestService struct {
	mediaRepo  *repository.MediaRecordRepository
	fpRepo     *repository.FingerprintRepository
	runRepo    *repository.IngestRunRepository
	sampler    source.FrameSampler
	embedder   EmbeddingProvider     // required in embedding mode, nil otherwise
	archive    storage.ObjectStorage // optional keyframe archive
	logger     *logger.Logger
	batchSize  int
	byteBudget int64
}

// IngestConfig holds configuration for the ingest service.
type IngestConfig struct {
	BatchSize  int
	ByteBudget int64 // cumulative bytes of media consumed before cutoff; <=0 means unlimited
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	mediaRepo *repository.MediaRecordRepository,
	fpRepo *repository.FingerprintRepository,
	runRepo *repository.IngestRunRepository,
	sampler source.FrameSampler,
	embedder EmbeddingProvider,
	archive storage.ObjectStorage,
	log *logger.Logger,
	cfg *IngestConfig,
) *IngestService {
	batchSize := 50
	var budget int64
	if cfg != nil {
		if cfg.BatchSize > 0 {
			batchSize = cfg.BatchSize
		}
		budget = cfg.ByteBudget
	}
	return &IngestService{
		mediaRepo:  mediaRepo,
		fpRepo:     fpRepo,
		runRepo:    runRepo,
		sampler:    sampler,
		embedder:   embedder,
		archive:    archive,
		logger:     log,
		batchSize:  batchSize,
		byteBudget: budget,
	}
}

// log returns a logger from context if available, otherwise returns the default logger
func (s *IngestService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// Run executes one ingestion run against the given source. The returned
// run carries the terminal status and counters; err is non-nil only for
// structural faults (store unavailability, cancellation), never for
// per-item skips.
// Parameters:
//   - ctx: context; cancellation is honored between items, never
//     mid-item, so the store stays consistent.
//   - src: media source to drain.
// Returns:
//   - *domain.IngestRun: persisted run record in a terminal state.
//   - error: non-nil if the run failed.
func (s *IngestService) Run(ctx context.Context, src source.Source) (*domain.IngestRun, error) {
	now := time.Now()
	run := &domain.IngestRun{
		ID:         uuid.New().String(),
		Channel:    src.GetSourceID(),
		Status:     domain.RunStatusIdle,
		ByteBudget: s.byteBudget,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		return nil, err
	}

	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldComponent: "ingest",
		logger.FieldRunID:     run.ID,
	})

	started := time.Now()
	run.Status = domain.RunStatusRunning
	run.StartedAt = &started
	if err := s.runRepo.Update(ctx, run); err != nil {
		return nil, err
	}

	s.log(ctx).WithFields(logger.Fields{
		"source":      src.GetSourceID(),
		"byte_budget": s.byteBudget,
	}).Info("Starting ingestion run")

	err := s.drain(ctx, src, run)

	completed := time.Now()
	run.CompletedAt = &completed
	run.UpdatedAt = completed

	switch {
	case err != nil:
		run.Status = domain.RunStatusFailed
		run.ErrorLog = err.Error()
	case run.Status != domain.RunStatusBudgetExceeded:
		run.Status = domain.RunStatusCompleted
	}

	if uerr := s.runRepo.Update(ctx, run); uerr != nil && err == nil {
		err = uerr
	}

	s.log(ctx).WithFields(logger.Fields{
		"status":    string(run.Status),
		"processed": run.ProcessedItems,
		"skipped":   run.SkippedItems,
		"failed":    run.FailedItems,
		"frames":    run.InsertedFrames,
		"bytes":     run.ConsumedBytes,
		"duration":  completed.Sub(started).String(),
	}).Info("Ingestion run finished")

	return run, err
}

// drain pulls batches from the source until exhaustion, budget cutoff,
// failure, or cancellation. It mutates the run counters in place.
func (s *IngestService) drain(ctx context.Context, src source.Source, run *domain.IngestRun) error {
	cursor := ""
	for {
		items, nextCursor, err := src.FetchBatch(ctx, cursor, s.batchSize)
		if err != nil {
			return fmt.Errorf("failed to fetch batch: %w", err)
		}
		if len(items) == 0 {
			return nil
		}

		for i := range items {
			// Cancellation is checked between items only.
			if err := ctx.Err(); err != nil {
				return err
			}

			// Stop accepting items once consumed bytes first reach the budget.
			if s.byteBudget > 0 && run.ConsumedBytes >= s.byteBudget {
				run.Status = domain.RunStatusBudgetExceeded
				s.log(ctx).WithFields(logger.Fields{
					"consumed": run.ConsumedBytes,
					"budget":   s.byteBudget,
				}).Info("Byte budget reached, stopping run")
				return nil
			}

			if err := s.processItem(ctx, &items[i], run); err != nil {
				return err
			}
		}

		if nextCursor == "" {
			return nil
		}
		cursor = nextCursor
	}
}

// processItem fingerprints one media item and commits its frames. Soft
// failures are counted and swallowed; the returned error is reserved
// for structural faults that end the run.
func (s *IngestService) processItem(ctx context.Context, item *source.MediaItem, run *domain.IngestRun) error {
	run.ConsumedBytes += int64(len(item.Data))

	// A link seen before is a no-op by contract; count it as skipped
	// without re-sampling the media.
	existing, err := s.mediaRepo.GetByLink(ctx, item.SourceLink)
	if err != nil {
		return err
	}
	if existing != nil {
		run.SkippedItems++
		return nil
	}

	frames, err := s.sampler.Sample(ctx, item)
	if err != nil || len(frames) == 0 {
		s.log(ctx).WithField("link", item.SourceLink).WithError(err).Warn("Skipping undecodable media item")
		run.FailedItems++
		return nil
	}

	rec, err := s.mediaRepo.GetOrCreate(ctx, &domain.MediaRecord{
		ID:         uuid.New().String(),
		SourceLink: item.SourceLink,
		Channel:    item.Channel,
		MessageRef: item.MessageRef,
		Duration:   item.Duration,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		return err
	}

	inserted := 0
	for _, frame := range frames {
		payload, err := s.fingerprintFrame(ctx, frame.Data)
		if err != nil {
			if errors.Is(err, domain.ErrDecodeFailure) || !isStructural(err) {
				s.log(ctx).WithFields(logger.Fields{
					"link":  item.SourceLink,
					"frame": frame.Index,
				}).WithError(err).Warn("Skipping undecodable frame")
				continue
			}
			return err
		}

		frameKey := s.archiveFrame(ctx, rec.ID, frame)

		fp := &domain.Fingerprint{
			ID:         uuid.New().String(),
			RecordID:   rec.ID,
			FrameIndex: frame.Index,
			Timestamp:  frame.Timestamp,
			Payload:    payload,
			Kind:       s.fpRepo.Kind(),
			FrameKey:   frameKey,
			CreatedAt:  time.Now(),
		}
		if err := s.fpRepo.Insert(ctx, fp); err != nil {
			return err
		}
		inserted++
	}

	if inserted == 0 {
		run.FailedItems++
		return nil
	}

	run.ProcessedItems++
	run.InsertedFrames += inserted
	return nil
}

// fingerprintFrame computes the store-kind fingerprint payload of one frame.
func (s *IngestService) fingerprintFrame(ctx context.Context, data []byte) ([]byte, error) {
	switch s.fpRepo.Kind() {
	case domain.KindHash:
		h, err := fingerprint.PHashData(data)
		if err != nil {
			return nil, err
		}
		return []byte(h), nil
	case domain.KindEmbedding:
		if s.embedder == nil {
			return nil, fmt.Errorf("embedding store requires an embedding provider: %w", domain.ErrKindMismatch)
		}
		v, err := s.embedder.EmbedImage(ctx, data)
		if err != nil {
			// Inference failure is a soft per-frame failure.
			return nil, fmt.Errorf("%w: %v", domain.ErrDecodeFailure, err)
		}
		return fingerprint.EncodeVector(v), nil
	default:
		return nil, fmt.Errorf("unknown store kind %q: %w", s.fpRepo.Kind(), domain.ErrKindMismatch)
	}
}

// archiveFrame uploads the frame image to the keyframe archive if one
// is configured. Best effort: a failed upload is logged, the
// fingerprint is still committed.
func (s *IngestService) archiveFrame(ctx context.Context, recordID string, frame source.Frame) string {
	if s.archive == nil {
		return ""
	}
	key := fmt.Sprintf("%s/%d.jpg", recordID, frame.Index)
	err := s.archive.Upload(ctx, key, bytes.NewReader(frame.Data), int64(len(frame.Data)), "image/jpeg")
	if err != nil {
		s.log(ctx).WithField("frame_key", key).WithError(err).Warn("Failed to archive keyframe")
		return ""
	}
	return key
}

// isStructural reports whether the error must end the run rather than
// skip the current item.
func isStructural(err error) bool {
	return errors.Is(err, domain.ErrStoreUnavailable) ||
		errors.Is(err, domain.ErrKindMismatch) ||
		errors.Is(err, domain.ErrDimensionMismatch)
}
