package domain

import "time"

// MediaRecord identifies one ingested media unit (a photo or a video).
// A record owns one fingerprint for a still image and one per sampled
// keyframe for a video. Records are created once and never mutated.
type MediaRecord struct {
	ID         string    `gorm:"type:text;primaryKey" json:"id"`
	SourceLink string    `gorm:"type:text;not null;uniqueIndex:idx_media_records_link" json:"source_link"`
	Channel    string    `gorm:"type:text;index:idx_media_records_channel" json:"channel"`
	MessageRef string    `gorm:"type:text" json:"message_ref,omitempty"`
	Duration   float64   `json:"duration,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for MediaRecord.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (MediaRecord) TableName() string {
	return "media_records"
}
