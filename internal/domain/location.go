package domain

import "time"

// Location is a parsed job location shared across postings. Identity is the
// (city, region, country_code) tuple; RawString keeps the provider's
// original text for display and debugging.
type Location struct {
	ID          string    `gorm:"type:text;primaryKey" json:"id"`
	City        string    `gorm:"type:text;uniqueIndex:idx_locations_tuple" json:"city,omitempty"`
	Region      string    `gorm:"type:text;uniqueIndex:idx_locations_tuple" json:"region,omitempty"`
	CountryCode string    `gorm:"type:text;uniqueIndex:idx_locations_tuple" json:"country_code,omitempty"`
	RawString   string    `gorm:"type:text" json:"raw_string"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for Location.
func (Location) TableName() string {
	return "locations"
}

// IsEmpty reports whether the parsed tuple carries no usable component.
func (l *Location) IsEmpty() bool {
	return l.City == "" && l.Region == "" && l.CountryCode == ""
}
