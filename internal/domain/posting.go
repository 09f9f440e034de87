package domain

import "time"

// Posting is the central entity: one job advertisement identified by
// (source, external_id). Invariants enforced by the pipeline:
//   - FirstSeenAt <= LastSeenAt, and LastSeenAt never decreases.
//   - IsActive == false implies DetectedInactiveAt is set.
//   - AIEnriched == true implies AIEnrichmentError is nil.
//   - NeedsRanking is set whenever any ranking-input field changes.
//   - DataHash reflects the monitored field subset (see dedup package).
type Posting struct {
	ID         string  `gorm:"type:text;primaryKey" json:"id"`
	Source     string  `gorm:"type:text;not null;index:idx_postings_source_ext,unique" json:"source"`
	ExternalID string  `gorm:"type:text;not null;index:idx_postings_source_ext,unique" json:"external_id"`
	CompanyID  string  `gorm:"type:text;not null;index:idx_postings_company" json:"company_id"`
	LocationID *string `gorm:"type:text;index:idx_postings_location" json:"location_id,omitempty"`

	Title           string     `gorm:"type:text;not null" json:"title"`
	URL             string     `gorm:"type:text;not null" json:"url"`
	PostedAt        *time.Time `json:"posted_at,omitempty"`
	EmploymentType  string     `gorm:"type:text" json:"employment_type,omitempty"`
	Seniority       string     `gorm:"type:text" json:"seniority,omitempty"`
	Salary          string     `gorm:"type:text" json:"salary,omitempty"`
	ApplicantsCount *int       `json:"applicants_count,omitempty"`

	IsActive           bool       `gorm:"default:true;index:idx_postings_active" json:"is_active"`
	FirstSeenAt        time.Time  `json:"first_seen_at"`
	LastSeenAt         time.Time  `gorm:"index:idx_postings_last_seen" json:"last_seen_at"`
	DetectedInactiveAt *time.Time `json:"detected_inactive_at,omitempty"`

	TitleClassification      *string    `gorm:"type:text" json:"title_classification,omitempty"`
	TitleClassificationError *string    `gorm:"type:text" json:"title_classification_error,omitempty"`
	AIEnriched               bool       `gorm:"default:false;index:idx_postings_enriched" json:"ai_enriched"`
	AIEnrichedAt             *time.Time `json:"ai_enriched_at,omitempty"`
	AIEnrichmentError        *string    `gorm:"type:text" json:"ai_enrichment_error,omitempty"`
	DataRoleType             *string    `gorm:"type:text" json:"data_role_type,omitempty"`
	EnrichmentCompletedAt    *time.Time `json:"enrichment_completed_at,omitempty"`

	RankingScore     *float64   `json:"ranking_score,omitempty"`
	RankingPosition  *int       `json:"ranking_position,omitempty"`
	RankingUpdatedAt *time.Time `json:"ranking_updated_at,omitempty"`
	NeedsRanking     bool       `gorm:"default:true;index:idx_postings_needs_ranking" json:"needs_ranking"`

	DataHash  string    `gorm:"type:text" json:"data_hash"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Posting.
func (Posting) TableName() string {
	return "postings"
}
