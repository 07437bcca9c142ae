package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/timmy/mediafind/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MediaRecordRepository handles media record operations.
type MediaRecordRepository struct {
	db *gorm.DB
}

// NewMediaRecordRepository creates a new MediaRecordRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *MediaRecordRepository: repository instance bound to db.
func NewMediaRecordRepository(db *gorm.DB) *MediaRecordRepository {
	return &MediaRecordRepository{db: db}
}

// GetOrCreate inserts the record if its source link is new and returns
// the stored record either way. A second attempt for the same link is a
// no-op that yields the original record, never a duplicate.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - rec: candidate record; ID is only used when the link is new.
// Returns:
//   - *domain.MediaRecord: persisted record for the link.
//   - error: wraps domain.ErrStoreUnavailable if persistence fails.
func (r *MediaRecordRepository) GetOrCreate(ctx context.Context, rec *domain.MediaRecord) (*domain.MediaRecord, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_link"}},
		DoNothing: true,
	}).Create(rec).Error
	if err != nil {
		return nil, storeErr("create media record", err)
	}

	var stored domain.MediaRecord
	if err := r.db.WithContext(ctx).First(&stored, "source_link = ?", rec.SourceLink).Error; err != nil {
		return nil, storeErr("load media record", err)
	}
	return &stored, nil
}

// GetByLink retrieves a record by its source link.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - link: source link.
// Returns:
//   - *domain.MediaRecord: record if found, nil if the link is unknown.
//   - error: wraps domain.ErrStoreUnavailable if the lookup fails.
func (r *MediaRecordRepository) GetByLink(ctx context.Context, link string) (*domain.MediaRecord, error) {
	var rec domain.MediaRecord
	err := r.db.WithContext(ctx).First(&rec, "source_link = ?", link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("load media record", err)
	}
	return &rec, nil
}

// Count returns the number of media records.
func (r *MediaRecordRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.MediaRecord{}).Count(&count).Error; err != nil {
		return 0, storeErr("count media records", err)
	}
	return count, nil
}

// storeErr tags a persistence failure with the store-unavailable
// sentinel so callers can distinguish it from per-item soft failures.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, domain.ErrStoreUnavailable)
}
