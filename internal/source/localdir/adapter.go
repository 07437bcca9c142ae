// Package localdir implements a Source over a local channel export: a
// directory holding a manifest.jsonl and the exported media files. It
// stands in for the live channel-scraping transport, which is an
// external collaborator.
package localdir

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/timmy/mediafind/internal/source"
)

const (
	// ManifestFileName is the JSONL manifest file name in an export directory.
	ManifestFileName = "manifest.jsonl"
	// MediaDir is the directory name for exported media files.
	MediaDir = "media"
)

// ManifestItem represents one line of the manifest.jsonl file.
type ManifestItem struct {
	MessageID int     `json:"message_id"`
	Filename  string  `json:"filename"`
	Kind      string  `json:"kind"` // photo or video
	Format    string  `json:"format"`
	Duration  float64 `json:"duration,omitempty"`
}

// Adapter implements the Source interface for a local channel export.
type Adapter struct {
	basePath string
	channel  string
	items    []source.MediaItem
	loaded   bool
}

// NewAdapter creates a new local export adapter.
// Parameters:
//   - basePath: base path of the export directory.
//   - channel: channel name used for links and provenance.
// Returns:
//   - *Adapter: initialized adapter.
func NewAdapter(basePath, channel string) *Adapter {
	return &Adapter{
		basePath: basePath,
		channel:  channel,
	}
}

// GetSourceID returns the unique identifier for this source.
// Parameters: none.
// Returns:
//   - string: source identifier with "localdir:" prefix.
func (a *Adapter) GetSourceID() string {
	return "localdir:" + a.channel
}

// FetchBatch fetches a batch of media items from the export directory.
// Parameters:
//   - ctx: context for cancellation and deadlines (unused for local reads).
//   - cursor: pagination cursor as an index string.
//   - limit: maximum number of items to fetch.
// Returns:
//   - []source.MediaItem: batch of media items.
//   - string: next cursor or empty if no more items.
//   - error: non-nil if loading or parsing fails.
func (a *Adapter) FetchBatch(ctx context.Context, cursor string, limit int) ([]source.MediaItem, string, error) {
	// Load all items on first call
	if !a.loaded {
		if err := a.loadItems(); err != nil {
			return nil, "", fmt.Errorf("failed to load export items: %w", err)
		}
		a.loaded = true
	}

	startIndex := 0
	if cursor != "" {
		var err error
		startIndex, err = strconv.Atoi(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", err)
		}
	}

	if startIndex >= len(a.items) {
		return []source.MediaItem{}, "", nil
	}

	endIndex := startIndex + limit
	if endIndex > len(a.items) {
		endIndex = len(a.items)
	}

	batch := a.items[startIndex:endIndex]

	nextCursor := ""
	if endIndex < len(a.items) {
		nextCursor = strconv.Itoa(endIndex)
	}

	return batch, nextCursor, nil
}

// loadItems loads all items from the manifest file and reads the media
// bytes from disk. Items are ordered by message ID so runs are
// reproducible.
func (a *Adapter) loadItems() error {
	exportPath := filepath.Join(a.basePath, a.channel)
	manifestPath := filepath.Join(exportPath, ManifestFileName)
	mediaPath := filepath.Join(exportPath, MediaDir)

	if _, err := os.Stat(manifestPath); os.IsNotExist(err) {
		return fmt.Errorf("manifest file not found: %s", manifestPath)
	}

	f, err := os.Open(manifestPath)
	if err != nil {
		return fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	var manifest []ManifestItem
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var item ManifestItem
		if err := json.Unmarshal(line, &item); err != nil {
			return fmt.Errorf("failed to parse manifest line: %w", err)
		}
		manifest = append(manifest, item)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}

	sort.Slice(manifest, func(i, j int) bool {
		return manifest[i].MessageID < manifest[j].MessageID
	})

	items := make([]source.MediaItem, 0, len(manifest))
	for _, m := range manifest {
		data, err := os.ReadFile(filepath.Join(mediaPath, m.Filename))
		if err != nil {
			return fmt.Errorf("failed to read media file %s: %w", m.Filename, err)
		}

		kind := source.KindPhoto
		if m.Kind == "video" {
			kind = source.KindVideo
		}

		items = append(items, source.MediaItem{
			SourceLink: fmt.Sprintf("https://t.me/%s/%d", a.channel, m.MessageID),
			Channel:    a.channel,
			MessageRef: strconv.Itoa(m.MessageID),
			Kind:       kind,
			Format:     m.Format,
			Duration:   m.Duration,
			Data:       data,
		})
	}

	a.items = items
	return nil
}
