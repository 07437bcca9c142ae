package source

import (
	"context"
	"testing"
)

func TestStillSamplerPhoto(t *testing.T) {
	s := NewStillSampler()
	item := &MediaItem{
		SourceLink: "https://t.me/testchannel/1",
		Kind:       KindPhoto,
		Data:       []byte{1, 2, 3},
	}

	frames, err := s.Sample(context.Background(), item)
	if err != nil {
		t.Fatalf("Sample returned error: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if frames[0].Index != 0 || frames[0].Timestamp != 0 {
		t.Errorf("frame position = (%d, %f), want (0, 0)", frames[0].Index, frames[0].Timestamp)
	}
	if string(frames[0].Data) != string(item.Data) {
		t.Error("frame data does not match item data")
	}
}

func TestStillSamplerRejectsVideo(t *testing.T) {
	s := NewStillSampler()
	_, err := s.Sample(context.Background(), &MediaItem{Kind: KindVideo, Data: []byte{1}})
	if err == nil {
		t.Fatal("expected error for video item, got nil")
	}
}

func TestStillSamplerRejectsEmptyItem(t *testing.T) {
	s := NewStillSampler()
	_, err := s.Sample(context.Background(), &MediaItem{Kind: KindPhoto})
	if err == nil {
		t.Fatal("expected error for empty item, got nil")
	}
}
