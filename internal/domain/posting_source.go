package domain

import "time"

// PostingSource records one platform appearance of a posting. A posting
// accumulates one row per platform when the same underlying job shows up on
// several boards. Readers should prefer these rows over the legacy scalar
// Posting.Source, which is retained for backward compatibility.
type PostingSource struct {
	ID          string    `gorm:"type:text;primaryKey" json:"id"`
	PostingID   string    `gorm:"type:text;not null;index:idx_posting_sources_posting,unique" json:"posting_id"`
	Source      string    `gorm:"type:text;not null;index:idx_posting_sources_posting,unique" json:"source"`
	ExternalID  string    `gorm:"type:text;not null" json:"external_id"`
	URL         string    `gorm:"type:text" json:"url"`
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// TableName returns the database table name for PostingSource.
func (PostingSource) TableName() string {
	return "posting_sources"
}
