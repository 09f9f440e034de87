package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StringArray is a custom type for storing string arrays as JSON in the
// database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// Company is a hiring company shared across postings. Identity is the
// normalized name: exactly one row per normalized name, never deleted by
// the pipeline.
type Company struct {
	ID         string      `gorm:"type:text;primaryKey" json:"id"`
	Name       string      `gorm:"type:text;not null;uniqueIndex:idx_companies_name" json:"name"`
	Website    string      `gorm:"type:text" json:"website,omitempty"`
	LogoURL    string      `gorm:"type:text" json:"logo_url,omitempty"`
	Industries StringArray `gorm:"type:text" json:"industries"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// TableName returns the database table name for Company.
func (Company) TableName() string {
	return "companies"
}
