package localdir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/timmy/mediafind/internal/source"
)

// writeExport lays out a channel export directory with a shuffled
// manifest and matching media files.
func writeExport(t *testing.T, base, channel string) {
	t.Helper()

	exportPath := filepath.Join(base, channel)
	mediaPath := filepath.Join(exportPath, MediaDir)
	if err := os.MkdirAll(mediaPath, 0755); err != nil {
		t.Fatalf("failed to create export dirs: %v", err)
	}

	manifest := `{"message_id": 3, "filename": "c.jpg", "kind": "photo", "format": "jpg"}
{"message_id": 1, "filename": "a.jpg", "kind": "photo", "format": "jpg"}

{"message_id": 2, "filename": "b.mp4", "kind": "video", "format": "mp4", "duration": 12.5}
`
	if err := os.WriteFile(filepath.Join(exportPath, ManifestFileName), []byte(manifest), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	for _, name := range []string{"a.jpg", "b.mp4", "c.jpg"} {
		if err := os.WriteFile(filepath.Join(mediaPath, name), []byte("payload-"+name), 0644); err != nil {
			t.Fatalf("failed to write media file: %v", err)
		}
	}
}

func TestFetchBatchOrdersByMessageID(t *testing.T) {
	base := t.TempDir()
	writeExport(t, base, "testchannel")

	a := NewAdapter(base, "testchannel")
	items, cursor, err := a.FetchBatch(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("FetchBatch returned error: %v", err)
	}
	if cursor != "" {
		t.Errorf("cursor = %q, want empty on full drain", cursor)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}

	for i, wantRef := range []string{"1", "2", "3"} {
		if items[i].MessageRef != wantRef {
			t.Errorf("item %d ref = %s, want %s", i, items[i].MessageRef, wantRef)
		}
	}

	first := items[0]
	if first.SourceLink != "https://t.me/testchannel/1" {
		t.Errorf("source link = %s, want https://t.me/testchannel/1", first.SourceLink)
	}
	if first.Kind != source.KindPhoto {
		t.Errorf("kind = %s, want photo", first.Kind)
	}
	if string(first.Data) != "payload-a.jpg" {
		t.Errorf("data = %q, want file contents", first.Data)
	}

	video := items[1]
	if video.Kind != source.KindVideo {
		t.Errorf("kind = %s, want video", video.Kind)
	}
	if video.Duration != 12.5 {
		t.Errorf("duration = %f, want 12.5", video.Duration)
	}
}

func TestFetchBatchPagination(t *testing.T) {
	base := t.TempDir()
	writeExport(t, base, "testchannel")

	a := NewAdapter(base, "testchannel")
	ctx := context.Background()

	var all []source.MediaItem
	cursor := ""
	for {
		items, next, err := a.FetchBatch(ctx, cursor, 2)
		if err != nil {
			t.Fatalf("FetchBatch returned error: %v", err)
		}
		all = append(all, items...)
		if next == "" {
			break
		}
		cursor = next
	}

	if len(all) != 3 {
		t.Errorf("paged through %d items, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].MessageRef >= all[i].MessageRef {
			t.Errorf("items out of order at %d: %s then %s", i, all[i-1].MessageRef, all[i].MessageRef)
		}
	}
}

func TestFetchBatchMissingManifest(t *testing.T) {
	a := NewAdapter(t.TempDir(), "nochannel")
	_, _, err := a.FetchBatch(context.Background(), "", 10)
	if err == nil {
		t.Fatal("expected error for missing manifest, got nil")
	}
}

func TestGetSourceID(t *testing.T) {
	a := NewAdapter("/tmp", "testchannel")
	if got := a.GetSourceID(); got != "localdir:testchannel" {
		t.Errorf("GetSourceID = %s, want localdir:testchannel", got)
	}
}
