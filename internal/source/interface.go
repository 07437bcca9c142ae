package source

import "context"

// MediaKind classifies a media item as a still image or a video.
type MediaKind string

const (
	KindPhoto MediaKind = "photo"
	KindVideo MediaKind = "video"
)

// MediaItem is one media unit delivered by an ingestion source: the raw
// bytes plus the provenance needed for attribution. The byte length of
// Data is what counts against the ingestion byte budget.
type MediaItem struct {
	SourceLink string // attribution target, e.g. https://t.me/{channel}/{message_id}
	Channel    string // provenance tag
	MessageRef string // source-specific message reference
	Kind       MediaKind
	Format     string  // file format (jpg, png, webp, mp4, ...)
	Duration   float64 // seconds, videos only
	Data       []byte
}

// Source defines the interface for ingestion transports.
type Source interface {
	// GetSourceID returns the unique identifier for this source.
	// Parameters: none.
	// Returns:
	//   - string: stable source identifier.
	GetSourceID() string

	// FetchBatch fetches a batch of media items starting from the given cursor.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - cursor: pagination cursor or empty for first page.
	//   - limit: maximum number of items to fetch.
	// Returns:
	//   - items: batch of media items.
	//   - nextCursor: cursor for the next batch or empty if done.
	//   - err: non-nil if fetching fails.
	FetchBatch(ctx context.Context, cursor string, limit int) (items []MediaItem, nextCursor string, err error)
}

// Frame is one timestamped still image sampled from a media item.
// Index is 0 for stills; Timestamp is the relative position within the
// source media, frame_index / total_frames_sampled for videos and 0.0
// for stills.
type Frame struct {
	Index     int
	Timestamp float64
	Data      []byte
}

// FrameSampler decomposes a media item into a bounded, ordered sequence
// of timestamped still frames. Video decoding is an external concern;
// implementations wrap whatever decoder is available. A sampler error
// is a per-item soft failure: the pipeline skips the item and
// continues.
type FrameSampler interface {
	Sample(ctx context.Context, item *MediaItem) ([]Frame, error)
}
