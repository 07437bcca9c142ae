package domain

import "time"

// FingerprintKind identifies the payload encoding of a fingerprint.
// Values are KindHash (fixed-width bit pattern, Hamming distance) and
// KindEmbedding (fixed-length float vector, cosine similarity).
type FingerprintKind string

const (
	KindHash      FingerprintKind = "hash"
	KindEmbedding FingerprintKind = "embedding"
)

// Fingerprint is one stored fingerprint row. FrameIndex is 0 for stills;
// Timestamp is the relative position within the source media (0.0 for
// stills). Payload holds the encoded bit pattern or vector. FrameKey is
// the optional object-storage key of the archived keyframe image.
//
// A (RecordID, FrameIndex) pair is unique; a second insert for the same
// pair is a no-op. All fingerprints in one store share a single kind.
type Fingerprint struct {
	ID         string          `gorm:"type:text;primaryKey" json:"id"`
	RecordID   string          `gorm:"type:text;not null;index:idx_fingerprints_record;uniqueIndex:idx_fingerprints_record_frame" json:"record_id"`
	FrameIndex int             `gorm:"not null;index:idx_fingerprints_frame;uniqueIndex:idx_fingerprints_record_frame" json:"frame_index"`
	Timestamp  float64         `json:"timestamp"`
	Payload    []byte          `gorm:"type:blob;not null" json:"-"`
	Kind       FingerprintKind `gorm:"type:text;not null" json:"kind"`
	FrameKey   string          `gorm:"type:text" json:"frame_key,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// TableName returns the database table name for Fingerprint.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (Fingerprint) TableName() string {
	return "fingerprints"
}

// StoredFingerprint is one row of a store scan: the fingerprint payload
// joined with the source link of its owning record. Scan order is stable
// within a single scan so downstream tie-breaks are reproducible.
type StoredFingerprint struct {
	FingerprintID string
	RecordID      string
	SourceLink    string
	Payload       []byte
	Kind          FingerprintKind
}
