package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/mediafind/internal/config"
	"github.com/timmy/mediafind/internal/domain"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := InitDB(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxIdleConns: 1,
		MaxOpenConns: 1,
		AutoMigrate:  true,
	})
	if err != nil {
		t.Fatalf("failed to init test database: %v", err)
	}
	return db
}

func newRecord(link string) *domain.MediaRecord {
	return &domain.MediaRecord{
		ID:         uuid.New().String(),
		SourceLink: link,
		Channel:    "testchannel",
		MessageRef: "42",
		CreatedAt:  time.Now(),
	}
}

func newHashFingerprint(recordID string, frame int, payload []byte) *domain.Fingerprint {
	return &domain.Fingerprint{
		ID:         uuid.New().String(),
		RecordID:   recordID,
		FrameIndex: frame,
		Payload:    payload,
		Kind:       domain.KindHash,
		CreatedAt:  time.Now(),
	}
}

func TestMediaRecordGetOrCreateIdempotent(t *testing.T) {
	db := testDB(t)
	repo := NewMediaRecordRepository(db)
	ctx := context.Background()

	first, err := repo.GetOrCreate(ctx, newRecord("https://t.me/testchannel/1"))
	if err != nil {
		t.Fatalf("first GetOrCreate returned error: %v", err)
	}

	// Same link again with a different candidate ID: must be a no-op.
	second, err := repo.GetOrCreate(ctx, newRecord("https://t.me/testchannel/1"))
	if err != nil {
		t.Fatalf("second GetOrCreate returned error: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("duplicate link created a new record: %s vs %s", first.ID, second.ID)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 1 {
		t.Errorf("record count = %d, want 1", count)
	}
}

func TestMediaRecordGetByLink(t *testing.T) {
	db := testDB(t)
	repo := NewMediaRecordRepository(db)
	ctx := context.Background()

	if _, err := repo.GetOrCreate(ctx, newRecord("https://t.me/testchannel/7")); err != nil {
		t.Fatalf("GetOrCreate returned error: %v", err)
	}

	rec, err := repo.GetByLink(ctx, "https://t.me/testchannel/7")
	if err != nil {
		t.Fatalf("GetByLink returned error: %v", err)
	}
	if rec == nil {
		t.Fatal("GetByLink returned nil for a stored link")
	}

	missing, err := repo.GetByLink(ctx, "https://t.me/testchannel/999")
	if err != nil {
		t.Fatalf("GetByLink returned error for unknown link: %v", err)
	}
	if missing != nil {
		t.Errorf("GetByLink returned a record for an unknown link: %+v", missing)
	}
}

func TestFingerprintInsertIdempotent(t *testing.T) {
	db := testDB(t)
	mediaRepo := NewMediaRecordRepository(db)
	fpRepo := NewFingerprintRepository(db, domain.KindHash)
	ctx := context.Background()

	rec, err := mediaRepo.GetOrCreate(ctx, newRecord("https://t.me/testchannel/1"))
	if err != nil {
		t.Fatalf("GetOrCreate returned error: %v", err)
	}

	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := fpRepo.Insert(ctx, newHashFingerprint(rec.ID, 0, payload)); err != nil {
		t.Fatalf("first Insert returned error: %v", err)
	}

	// Same (record, frame) again: silent no-op.
	if err := fpRepo.Insert(ctx, newHashFingerprint(rec.ID, 0, payload)); err != nil {
		t.Fatalf("duplicate Insert returned error: %v", err)
	}

	// A different frame of the same record is a new row.
	if err := fpRepo.Insert(ctx, newHashFingerprint(rec.ID, 1, payload)); err != nil {
		t.Fatalf("second frame Insert returned error: %v", err)
	}

	count, err := fpRepo.Count(ctx)
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 2 {
		t.Errorf("fingerprint count = %d, want 2", count)
	}
}

func TestFingerprintInsertKindMismatch(t *testing.T) {
	db := testDB(t)
	fpRepo := NewFingerprintRepository(db, domain.KindHash)

	fp := newHashFingerprint(uuid.New().String(), 0, []byte{1})
	fp.Kind = domain.KindEmbedding

	err := fpRepo.Insert(context.Background(), fp)
	if err != domain.ErrKindMismatch {
		t.Errorf("error = %v, want ErrKindMismatch", err)
	}
}

func TestForEachFingerprintScan(t *testing.T) {
	db := testDB(t)
	mediaRepo := NewMediaRecordRepository(db)
	fpRepo := NewFingerprintRepository(db, domain.KindHash)
	ctx := context.Background()

	rec, err := mediaRepo.GetOrCreate(ctx, newRecord("https://t.me/testchannel/5"))
	if err != nil {
		t.Fatalf("GetOrCreate returned error: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := fpRepo.Insert(ctx, newHashFingerprint(rec.ID, i, []byte{byte(i)})); err != nil {
			t.Fatalf("Insert frame %d returned error: %v", i, err)
		}
	}

	var rows []domain.StoredFingerprint
	err = fpRepo.ForEachFingerprint(ctx, func(row domain.StoredFingerprint) error {
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachFingerprint returned error: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("scanned %d rows, want 3", len(rows))
	}
	for i, row := range rows {
		if row.SourceLink != "https://t.me/testchannel/5" {
			t.Errorf("row %d source link = %s, want the record's link", i, row.SourceLink)
		}
		if row.Kind != domain.KindHash {
			t.Errorf("row %d kind = %s, want hash", i, row.Kind)
		}
		if row.RecordID != rec.ID {
			t.Errorf("row %d record id = %s, want %s", i, row.RecordID, rec.ID)
		}
	}

	// Two scans of an unchanged store enumerate in the same order.
	var again []string
	err = fpRepo.ForEachFingerprint(ctx, func(row domain.StoredFingerprint) error {
		again = append(again, row.FingerprintID)
		return nil
	})
	if err != nil {
		t.Fatalf("second ForEachFingerprint returned error: %v", err)
	}
	for i := range rows {
		if rows[i].FingerprintID != again[i] {
			t.Errorf("scan order changed at %d: %s vs %s", i, rows[i].FingerprintID, again[i])
		}
	}
}

func TestForEachFingerprintEmptyStore(t *testing.T) {
	db := testDB(t)
	fpRepo := NewFingerprintRepository(db, domain.KindHash)

	calls := 0
	err := fpRepo.ForEachFingerprint(context.Background(), func(domain.StoredFingerprint) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachFingerprint returned error: %v", err)
	}
	if calls != 0 {
		t.Errorf("callback invoked %d times on empty store, want 0", calls)
	}
}

func TestIngestRunLifecycle(t *testing.T) {
	db := testDB(t)
	runRepo := NewIngestRunRepository(db)
	ctx := context.Background()

	run := &domain.IngestRun{
		ID:        uuid.New().String(),
		Channel:   "testchannel",
		Status:    domain.RunStatusIdle,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := runRepo.Create(ctx, run); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	run.Status = domain.RunStatusCompleted
	run.ProcessedItems = 12
	if err := runRepo.Update(ctx, run); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	stored, err := runRepo.GetByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if stored.Status != domain.RunStatusCompleted {
		t.Errorf("status = %s, want completed", stored.Status)
	}
	if stored.ProcessedItems != 12 {
		t.Errorf("processed = %d, want 12", stored.ProcessedItems)
	}

	runs, err := runRepo.List(ctx, 10)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("listed %d runs, want 1", len(runs))
	}
}
