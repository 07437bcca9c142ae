package repository

import (
	"context"

	"github.com/timmy/mediafind/internal/domain"
	"gorm.io/gorm"
)

// IngestRunRepository handles ingest run bookkeeping.
type IngestRunRepository struct {
	db *gorm.DB
}

// NewIngestRunRepository creates a new IngestRunRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *IngestRunRepository: repository instance bound to db.
func NewIngestRunRepository(db *gorm.DB) *IngestRunRepository {
	return &IngestRunRepository{db: db}
}

// Create inserts a new run record.
func (r *IngestRunRepository) Create(ctx context.Context, run *domain.IngestRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return storeErr("create ingest run", err)
	}
	return nil
}

// Update saves updated run counters and status.
func (r *IngestRunRepository) Update(ctx context.Context, run *domain.IngestRun) error {
	if err := r.db.WithContext(ctx).Save(run).Error; err != nil {
		return storeErr("update ingest run", err)
	}
	return nil
}

// GetByID retrieves a run by its ID.
func (r *IngestRunRepository) GetByID(ctx context.Context, id string) (*domain.IngestRun, error) {
	var run domain.IngestRun
	if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		return nil, storeErr("load ingest run", err)
	}
	return &run, nil
}

// List retrieves runs ordered most recent first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum number of runs to return.
// Returns:
//   - []domain.IngestRun: matching run records.
//   - error: wraps domain.ErrStoreUnavailable if the query fails.
func (r *IngestRunRepository) List(ctx context.Context, limit int) ([]domain.IngestRun, error) {
	var runs []domain.IngestRun
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, storeErr("list ingest runs", err)
	}
	return runs, nil
}
