package repository

import (
	"context"

	"github.com/timmy/mediafind/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// scanBatchSize is the page size of one store scan.
const scanBatchSize = 500

// FingerprintRepository handles fingerprint rows for one store instance.
// An instance holds fingerprints of exactly one kind; inserting the
// other kind is a contract violation, not a silent degrade.
type FingerprintRepository struct {
	db   *gorm.DB
	kind domain.FingerprintKind
}

// NewFingerprintRepository creates a new FingerprintRepository.
// Parameters:
//   - db: GORM database handle used for queries.
//   - kind: the single fingerprint kind this store holds.
// Returns:
//   - *FingerprintRepository: repository instance bound to db.
func NewFingerprintRepository(db *gorm.DB, kind domain.FingerprintKind) *FingerprintRepository {
	return &FingerprintRepository{db: db, kind: kind}
}

// Kind returns the fingerprint kind this store instance holds.
func (r *FingerprintRepository) Kind() domain.FingerprintKind {
	return r.kind
}

// Insert persists a fingerprint. Idempotent: a row with the same
// (record_id, frame_index) already present makes the call a silent
// no-op, no error and no duplicate.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - fp: fingerprint to persist.
// Returns:
//   - error: domain.ErrKindMismatch if fp.Kind differs from the store
//     kind; wraps domain.ErrStoreUnavailable if persistence fails.
func (r *FingerprintRepository) Insert(ctx context.Context, fp *domain.Fingerprint) error {
	if fp.Kind != r.kind {
		return domain.ErrKindMismatch
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "record_id"}, {Name: "frame_index"}},
		DoNothing: true,
	}).Create(fp).Error
	if err != nil {
		return storeErr("insert fingerprint", err)
	}
	return nil
}

// ForEachFingerprint enumerates all stored fingerprints joined with
// their record's source link. The scan is lazy (paged by id cursor),
// restartable, and stable within a single scan: rows arrive in id
// order, so downstream tie-breaks are reproducible. A concurrent insert
// may or may not be observed by an in-flight scan.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - fn: callback per row; a returned error aborts the scan.
// Returns:
//   - error: the callback's error, or wraps domain.ErrStoreUnavailable
//     if a page read fails.
func (r *FingerprintRepository) ForEachFingerprint(ctx context.Context, fn func(domain.StoredFingerprint) error) error {
	lastID := ""
	for {
		var rows []domain.StoredFingerprint
		err := r.db.WithContext(ctx).
			Table("fingerprints").
			Select("fingerprints.id AS fingerprint_id, fingerprints.record_id, fingerprints.payload, fingerprints.kind, media_records.source_link").
			Joins("JOIN media_records ON media_records.id = fingerprints.record_id").
			Where("fingerprints.id > ?", lastID).
			Order("fingerprints.id").
			Limit(scanBatchSize).
			Scan(&rows).Error
		if err != nil {
			return storeErr("scan fingerprints", err)
		}
		if len(rows) == 0 {
			return nil
		}
		for _, row := range rows {
			if err := fn(row); err != nil {
				return err
			}
		}
		lastID = rows[len(rows)-1].FingerprintID
	}
}

// Count returns the number of stored fingerprints.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - int64: number of fingerprint rows.
//   - error: wraps domain.ErrStoreUnavailable if the query fails.
func (r *FingerprintRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Fingerprint{}).Count(&count).Error; err != nil {
		return 0, storeErr("count fingerprints", err)
	}
	return count, nil
}
