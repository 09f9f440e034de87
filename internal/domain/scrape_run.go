package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// RunStatus represents the lifecycle state of a scrape run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Recognized RunMetadata keys. Unknown keys are preserved on write-back so
// forward-compat fields written by other readers are never lost.
const (
	MetaDateRange     = "date_range"
	MetaSnapshotID    = "snapshot_id"
	MetaJobsReturned  = "brightdata_jobs_returned"
	MetaDuration      = "duration_seconds"
	MetaJobsError     = "jobs_error"
	MetaErrorDetails  = "error_details"
	MetaErrorType     = "error_type"
	MetaCancelled     = "cancelled_manually"
	MetaCancelledAt   = "cancelled_at"
	MetaPrevStatus    = "previous_status"
	MetaRangeWarning  = "date_range_warning"
)

// ErrorDetail describes one per-record ingestion failure attached to a run.
type ErrorDetail struct {
	RecordIndex int    `json:"record_index,omitempty"`
	Kind        string `json:"kind"`
	Error       string `json:"error"`
}

// RunMetadata is a semi-structured bag of optional run fields stored as
// JSON. Recognized keys are listed above; anything else passes through.
type RunMetadata map[string]interface{}

// Value implements the driver.Valuer interface for database serialization.
func (m RunMetadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface for database deserialization.
func (m *RunMetadata) Scan(value interface{}) error {
	if value == nil {
		*m = RunMetadata{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan RunMetadata")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, m)
}

// GetString returns the metadata value at key as a string, or "" when
// absent or not a string.
func (m RunMetadata) GetString(key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// GetInt returns the metadata value at key as an int, tolerating the
// float64 representation JSON decoding produces.
func (m RunMetadata) GetInt(key string) int {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// GetBool returns the metadata value at key as a bool.
func (m RunMetadata) GetBool(key string) bool {
	if m == nil {
		return false
	}
	b, _ := m[key].(bool)
	return b
}

// ScrapeRun is one orchestrator invocation for one query.
type ScrapeRun struct {
	ID            string      `gorm:"type:text;primaryKey" json:"id"`
	QueryID       string      `gorm:"type:text;not null;index:idx_scrape_runs_query" json:"query_id"`
	Platform      string      `gorm:"type:text;not null" json:"platform"`
	Status        RunStatus   `gorm:"type:text;default:pending;index:idx_scrape_runs_status" json:"status"`
	StartedAt     time.Time   `json:"started_at"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
	SearchQuery   string      `gorm:"type:text" json:"search_query"`
	LocationQuery string      `gorm:"type:text" json:"location_query"`
	JobsFound     int         `gorm:"default:0" json:"jobs_found"`
	JobsNew       int         `gorm:"default:0" json:"jobs_new"`
	JobsUpdated   int         `gorm:"default:0" json:"jobs_updated"`
	ErrorMessage  *string     `gorm:"type:text" json:"error_message,omitempty"`
	Metadata      RunMetadata `gorm:"type:text" json:"metadata"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// TableName returns the database table name for ScrapeRun.
func (ScrapeRun) TableName() string {
	return "scrape_runs"
}
