package source

import (
	"context"
	"fmt"
)

// StillSampler is the built-in sampler for still images: one frame at
// index 0, timestamp 0.0. It rejects videos; wire a video-capable
// FrameSampler to ingest keyframes.
type StillSampler struct{}

// NewStillSampler creates a StillSampler.
func NewStillSampler() *StillSampler {
	return &StillSampler{}
}

// Sample returns the item's bytes as a single frame.
// Parameters:
//   - ctx: unused, local operation.
//   - item: media item to decompose.
// Returns:
//   - []Frame: one frame for a photo.
//   - error: non-nil for videos or empty items.
func (s *StillSampler) Sample(ctx context.Context, item *MediaItem) ([]Frame, error) {
	if item.Kind != KindPhoto {
		return nil, fmt.Errorf("still sampler cannot decompose %s media", item.Kind)
	}
	if len(item.Data) == 0 {
		return nil, fmt.Errorf("empty media item %s", item.SourceLink)
	}
	return []Frame{{Index: 0, Timestamp: 0, Data: item.Data}}, nil
}
