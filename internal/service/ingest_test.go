package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/timmy/mediafind/internal/config"
	"github.com/timmy/mediafind/internal/domain"
	"github.com/timmy/mediafind/internal/logger"
	"github.com/timmy/mediafind/internal/matcher"
	"github.com/timmy/mediafind/internal/repository"
	"github.com/timmy/mediafind/internal/source"
	"gorm.io/gorm"
)

// sliceSource serves a fixed item list in batches.
type sliceSource struct {
	items []source.MediaItem
}

func (s *sliceSource) GetSourceID() string {
	return "testchannel"
}

func (s *sliceSource) FetchBatch(ctx context.Context, cursor string, limit int) ([]source.MediaItem, string, error) {
	start := 0
	if cursor != "" {
		fmt.Sscanf(cursor, "%d", &start)
	}
	if start >= len(s.items) {
		return nil, "", nil
	}
	end := start + limit
	if end > len(s.items) {
		end = len(s.items)
	}
	next := ""
	if end < len(s.items) {
		next = fmt.Sprintf("%d", end)
	}
	return s.items[start:end], next, nil
}

func testPNG(t *testing.T, seed uint8) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x*4) ^ seed, G: uint8(y * 4), B: seed, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func photoItem(t *testing.T, messageID int, seed uint8) source.MediaItem {
	t.Helper()
	return source.MediaItem{
		SourceLink: fmt.Sprintf("https://t.me/testchannel/%d", messageID),
		Channel:    "testchannel",
		MessageRef: fmt.Sprintf("%d", messageID),
		Kind:       source.KindPhoto,
		Format:     "png",
		Data:       testPNG(t, seed),
	}
}

type testEnv struct {
	db        *gorm.DB
	mediaRepo *repository.MediaRecordRepository
	fpRepo    *repository.FingerprintRepository
	runRepo   *repository.IngestRunRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := repository.InitDB(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxIdleConns: 1,
		MaxOpenConns: 1,
		AutoMigrate:  true,
	})
	if err != nil {
		t.Fatalf("failed to init test database: %v", err)
	}
	return &testEnv{
		db:        db,
		mediaRepo: repository.NewMediaRecordRepository(db),
		fpRepo:    repository.NewFingerprintRepository(db, domain.KindHash),
		runRepo:   repository.NewIngestRunRepository(db),
	}
}

func newTestIngest(env *testEnv, budget int64) *IngestService {
	log := logger.New(&logger.Config{Level: "error", Format: "json", ServiceName: "test"})
	return NewIngestService(
		env.mediaRepo,
		env.fpRepo,
		env.runRepo,
		source.NewStillSampler(),
		nil,
		nil,
		log,
		&IngestConfig{BatchSize: 2, ByteBudget: budget},
	)
}

func TestIngestRunCompletes(t *testing.T) {
	env := newTestEnv(t)
	svc := newTestIngest(env, 0)

	src := &sliceSource{items: []source.MediaItem{
		photoItem(t, 1, 10),
		photoItem(t, 2, 200),
		photoItem(t, 3, 77),
	}}

	run, err := svc.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if run.Status != domain.RunStatusCompleted {
		t.Errorf("status = %s, want completed", run.Status)
	}
	if run.ProcessedItems != 3 {
		t.Errorf("processed = %d, want 3", run.ProcessedItems)
	}
	if run.InsertedFrames != 3 {
		t.Errorf("frames = %d, want 3", run.InsertedFrames)
	}
	if run.ConsumedBytes == 0 {
		t.Error("consumed bytes not counted")
	}

	count, err := env.fpRepo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 3 {
		t.Errorf("fingerprint count = %d, want 3", count)
	}

	// The run record is persisted in its terminal state.
	stored, err := env.runRepo.GetByID(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if !stored.Status.Terminal() {
		t.Errorf("persisted status = %s, want terminal", stored.Status)
	}
}

func TestIngestSkipsKnownLinks(t *testing.T) {
	env := newTestEnv(t)
	svc := newTestIngest(env, 0)
	ctx := context.Background()

	src := &sliceSource{items: []source.MediaItem{photoItem(t, 1, 10)}}
	if _, err := svc.Run(ctx, src); err != nil {
		t.Fatalf("first Run returned error: %v", err)
	}

	// Second run over the same source: everything is already known.
	run, err := svc.Run(ctx, src)
	if err != nil {
		t.Fatalf("second Run returned error: %v", err)
	}
	if run.SkippedItems != 1 {
		t.Errorf("skipped = %d, want 1", run.SkippedItems)
	}
	if run.ProcessedItems != 0 {
		t.Errorf("processed = %d, want 0", run.ProcessedItems)
	}

	count, err := env.fpRepo.Count(ctx)
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 1 {
		t.Errorf("fingerprint count = %d, want 1 after re-run", count)
	}
}

func TestIngestSkipsUndecodableItems(t *testing.T) {
	env := newTestEnv(t)
	svc := newTestIngest(env, 0)

	corrupt := photoItem(t, 2, 0)
	corrupt.Data = []byte("definitely not an image")

	src := &sliceSource{items: []source.MediaItem{
		photoItem(t, 1, 10),
		corrupt,
		photoItem(t, 3, 99),
	}}

	run, err := svc.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if run.Status != domain.RunStatusCompleted {
		t.Errorf("status = %s, want completed despite soft failure", run.Status)
	}
	if run.ProcessedItems != 2 {
		t.Errorf("processed = %d, want 2", run.ProcessedItems)
	}
	if run.FailedItems != 1 {
		t.Errorf("failed = %d, want 1", run.FailedItems)
	}
}

func TestIngestStopsAtByteBudget(t *testing.T) {
	env := newTestEnv(t)
	items := []source.MediaItem{
		photoItem(t, 1, 10),
		photoItem(t, 2, 20),
		photoItem(t, 3, 30),
	}
	// Budget admits the first item; the cumulative count reaches it
	// before the second item starts.
	budget := int64(len(items[0].Data))
	svc := newTestIngest(env, budget)

	run, err := svc.Run(context.Background(), &sliceSource{items: items})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if run.Status != domain.RunStatusBudgetExceeded {
		t.Errorf("status = %s, want budget_exceeded", run.Status)
	}
	if run.ProcessedItems != 1 {
		t.Errorf("processed = %d, want 1", run.ProcessedItems)
	}

	// Work committed before the cutoff stays persisted.
	count, err := env.fpRepo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 1 {
		t.Errorf("fingerprint count = %d, want 1", count)
	}
}

// cancelingSource cancels the run's context as soon as the first batch
// is fetched, before any item is processed.
type cancelingSource struct {
	sliceSource
	cancel context.CancelFunc
}

func (s *cancelingSource) FetchBatch(ctx context.Context, cursor string, limit int) ([]source.MediaItem, string, error) {
	s.cancel()
	return s.sliceSource.FetchBatch(ctx, cursor, limit)
}

func TestIngestCanceledBetweenItems(t *testing.T) {
	env := newTestEnv(t)
	svc := newTestIngest(env, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &cancelingSource{
		sliceSource: sliceSource{items: []source.MediaItem{photoItem(t, 1, 10)}},
		cancel:      cancel,
	}

	run, err := svc.Run(ctx, src)
	if err == nil {
		t.Fatal("expected error from canceled context, got nil")
	}
	if run.Status != domain.RunStatusFailed {
		t.Errorf("status = %s, want failed", run.Status)
	}
	if run.ProcessedItems != 0 {
		t.Errorf("processed = %d, want 0", run.ProcessedItems)
	}
}

func newTestQuery(env *testEnv) *QueryService {
	log := logger.New(&logger.Config{Level: "error", Format: "json", ServiceName: "test"})
	return NewQueryService(
		env.mediaRepo,
		env.fpRepo,
		env.runRepo,
		matcher.New(nil),
		nil,
		log,
		nil,
	)
}

func TestSearchImageFindsIngestedMedia(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	needle := photoItem(t, 1, 10)
	src := &sliceSource{items: []source.MediaItem{
		needle,
		photoItem(t, 2, 200),
	}}
	if _, err := newTestIngest(env, 0).Run(ctx, src); err != nil {
		t.Fatalf("ingest Run returned error: %v", err)
	}

	resp, err := newTestQuery(env).SearchImage(ctx, needle.Data, 5)
	if err != nil {
		t.Fatalf("SearchImage returned error: %v", err)
	}

	if len(resp.Matches) == 0 {
		t.Fatal("no matches for an exact ingested image")
	}
	if resp.Matches[0].SourceLink != needle.SourceLink {
		t.Errorf("best link = %s, want %s", resp.Matches[0].SourceLink, needle.SourceLink)
	}
	if resp.Matches[0].Score != 1.0 {
		t.Errorf("exact match score = %f, want 1.0", resp.Matches[0].Score)
	}
	if resp.Kind != domain.KindHash {
		t.Errorf("kind = %s, want hash", resp.Kind)
	}
}

func TestSearchImageEmptyStore(t *testing.T) {
	env := newTestEnv(t)

	resp, err := newTestQuery(env).SearchImage(context.Background(), testPNG(t, 1), 5)
	if err != nil {
		t.Fatalf("SearchImage returned error: %v", err)
	}
	if len(resp.Matches) != 0 {
		t.Errorf("got %d matches from empty store, want 0", len(resp.Matches))
	}
	if resp.Total != 0 {
		t.Errorf("total = %d, want 0", resp.Total)
	}
}

func TestSearchImageTruncatesToLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Several identical copies under different links all match the query.
	data := testPNG(t, 42)
	items := make([]source.MediaItem, 0, 4)
	for i := 1; i <= 4; i++ {
		item := photoItem(t, i, 0)
		item.Data = data
		items = append(items, item)
	}
	if _, err := newTestIngest(env, 0).Run(ctx, &sliceSource{items: items}); err != nil {
		t.Fatalf("ingest Run returned error: %v", err)
	}

	resp, err := newTestQuery(env).SearchImage(ctx, data, 2)
	if err != nil {
		t.Fatalf("SearchImage returned error: %v", err)
	}
	if len(resp.Matches) != 2 {
		t.Errorf("got %d matches, want limit 2", len(resp.Matches))
	}
	if resp.Total != 4 {
		t.Errorf("total = %d, want 4", resp.Total)
	}
}

func TestSearchImageUnreadableQuery(t *testing.T) {
	env := newTestEnv(t)

	_, err := newTestQuery(env).SearchImage(context.Background(), []byte("junk"), 5)
	if err == nil {
		t.Fatal("expected error for unreadable query image, got nil")
	}
}
