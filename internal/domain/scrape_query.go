package domain

import "time"

// ScrapeQuery is a user-defined (search, location, platform) tuple the
// scheduler periodically scrapes. MinIntervalHours gates how often a query
// may trigger a new run.
type ScrapeQuery struct {
	ID               string    `gorm:"type:text;primaryKey" json:"id"`
	SearchQuery      string    `gorm:"type:text;not null" json:"search_query"`
	LocationQuery    string    `gorm:"type:text" json:"location_query"`
	Platform         string    `gorm:"type:text;not null" json:"platform"`
	Country          string    `gorm:"type:text" json:"country"`
	JobTypeID        *string   `gorm:"type:text" json:"job_type_id,omitempty"`
	Enabled          bool      `gorm:"default:true;index:idx_scrape_queries_enabled" json:"enabled"`
	MinIntervalHours int       `gorm:"default:24" json:"min_interval_hours"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName returns the database table name for ScrapeQuery.
func (ScrapeQuery) TableName() string {
	return "scrape_queries"
}
