package domain

import "time"

// JobDescription holds the description text for a posting: the raw provider
// HTML and the cleaned plain text. One row per posting, rewritten on update.
type JobDescription struct {
	ID          string    `gorm:"type:text;primaryKey" json:"id"`
	PostingID   string    `gorm:"type:text;not null;uniqueIndex:idx_job_descriptions_posting" json:"posting_id"`
	RawHTML     string    `gorm:"type:text" json:"raw_html,omitempty"`
	CleanedText string    `gorm:"type:text;not null" json:"cleaned_text"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for JobDescription.
func (JobDescription) TableName() string {
	return "job_descriptions"
}
