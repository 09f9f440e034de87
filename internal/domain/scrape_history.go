package domain

import "time"

// ScrapeHistory links every successfully ingested posting to the run that
// saw it. Append-only.
type ScrapeHistory struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PostingID  string    `gorm:"type:text;not null;index:idx_scrape_history_posting" json:"posting_id"`
	RunID      string    `gorm:"type:text;not null;index:idx_scrape_history_run" json:"run_id"`
	DetectedAt time.Time `json:"detected_at"`
}

// TableName returns the database table name for ScrapeHistory.
func (ScrapeHistory) TableName() string {
	return "scrape_history"
}
