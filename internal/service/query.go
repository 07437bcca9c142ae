package service

import (
	"context"
	"fmt"

	"github.com/timmy/mediafind/internal/domain"
	"github.com/timmy/mediafind/internal/fingerprint"
	"github.com/timmy/mediafind/internal/logger"
	"github.com/timmy/mediafind/internal/matcher"
	"github.com/timmy/mediafind/internal/repository"
)

// DefaultResultLimit is the number of ranked links returned when the
// caller does not ask for a specific limit.
const DefaultResultLimit = 5

// QueryService handles reverse image queries: fingerprint the query
// image, score it against the store, and rank the owning links.
type QueryService struct {
	mediaRepo *repository.MediaRecordRepository
	fpRepo    *repository.FingerprintRepository
	runRepo   *repository.IngestRunRepository
	matcher   *matcher.Matcher
	embedder  EmbeddingProvider // required in embedding mode, nil otherwise
	logger    *logger.Logger
	topK      int
}

// QueryConfig holds configuration for the query service.
type QueryConfig struct {
	TopK int // candidate pool for the embedding policy
}

// NewQueryService creates a new query service.
func NewQueryService(
	mediaRepo *repository.MediaRecordRepository,
	fpRepo *repository.FingerprintRepository,
	runRepo *repository.IngestRunRepository,
	m *matcher.Matcher,
	embedder EmbeddingProvider,
	log *logger.Logger,
	cfg *QueryConfig,
) *QueryService {
	topK := 20
	if cfg != nil && cfg.TopK > 0 {
		topK = cfg.TopK
	}
	return &QueryService{
		mediaRepo: mediaRepo,
		fpRepo:    fpRepo,
		runRepo:   runRepo,
		matcher:   m,
		embedder:  embedder,
		logger:    log,
		topK:      topK,
	}
}

// log returns a logger from context if available, otherwise returns the default logger
func (s *QueryService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// QueryResponse is the ranked answer to one image query. An empty
// Matches slice means "no match", which is a normal outcome, not an
// error.
type QueryResponse struct {
	Matches []matcher.RankedLink   `json:"matches"`
	Total   int                    `json:"total"`
	Kind    domain.FingerprintKind `json:"kind"`
}

// SearchImage finds the stored links most similar to the query image.
// The full ranking is computed and then truncated to limit entries
// (DefaultResultLimit when limit <= 0).
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - data: raw query image bytes.
//   - limit: maximum number of ranked links to return.
// Returns:
//   - *QueryResponse: ranked links, empty when nothing qualifies.
//   - error: decode failure of the query image, or a structural store
//     fault.
func (s *QueryService) SearchImage(ctx context.Context, data []byte, limit int) (*QueryResponse, error) {
	if limit <= 0 {
		limit = DefaultResultLimit
	}

	matches, err := s.match(ctx, data)
	if err != nil {
		return nil, err
	}

	ranked := matcher.Rank(matches)
	total := len(ranked)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	s.log(ctx).WithFields(logger.Fields{
		"kind":    string(s.fpRepo.Kind()),
		"matches": len(matches),
		"links":   total,
	}).Info("Image query completed")

	return &QueryResponse{
		Matches: ranked,
		Total:   total,
		Kind:    s.fpRepo.Kind(),
	}, nil
}

// match fingerprints the query image under the store's policy and
// scores it against every stored fingerprint.
func (s *QueryService) match(ctx context.Context, data []byte) ([]matcher.Match, error) {
	switch s.fpRepo.Kind() {
	case domain.KindHash:
		h, err := fingerprint.PHashData(data)
		if err != nil {
			return nil, err
		}
		return s.matcher.MatchHash(ctx, s.fpRepo, h)
	case domain.KindEmbedding:
		if s.embedder == nil {
			return nil, fmt.Errorf("embedding store requires an embedding provider: %w", domain.ErrKindMismatch)
		}
		v, err := s.embedder.EmbedImage(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("failed to embed query image: %w", err)
		}
		return s.matcher.MatchEmbedding(ctx, s.fpRepo, fingerprint.EmbeddingFingerprint(v), s.topK)
	default:
		return nil, fmt.Errorf("unknown store kind %q: %w", s.fpRepo.Kind(), domain.ErrKindMismatch)
	}
}

// Stats returns store-level statistics.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - map[string]interface{}: aggregated counts.
//   - error: non-nil if statistics cannot be computed.
func (s *QueryService) Stats(ctx context.Context) (map[string]interface{}, error) {
	records, err := s.mediaRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	fingerprints, err := s.fpRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"media_records": records,
		"fingerprints":  fingerprints,
		"store_kind":    string(s.fpRepo.Kind()),
	}, nil
}

// ListRuns returns recent ingestion runs, newest first.
func (s *QueryService) ListRuns(ctx context.Context, limit int) ([]domain.IngestRun, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.runRepo.List(ctx, limit)
}
