package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jobpulse/jobpulse/internal/domain"
)

// defaultBatchLimit caps candidate selection when callers pass no limit.
const defaultBatchLimit = 200

// PostingRepository handles posting rows and their owned dependents
// (posting sources, job descriptions).
type PostingRepository struct {
	db *gorm.DB
}

// NewPostingRepository creates a new PostingRepository.
func NewPostingRepository(db *gorm.DB) *PostingRepository {
	return &PostingRepository{db: db}
}

// FindPosting looks up a posting by (source, external_id). The
// posting_sources table is consulted first since a posting may have been
// first seen on a different platform; the legacy scalar columns are the
// fallback. Returns (nil, nil) when no row exists.
func (r *PostingRepository) FindPosting(ctx context.Context, source, externalID string) (*domain.Posting, error) {
	var src domain.PostingSource
	err := r.db.WithContext(ctx).
		First(&src, "source = ? AND external_id = ?", source, externalID).Error
	if err == nil {
		return r.GetByID(ctx, src.PostingID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var posting domain.Posting
	err = r.db.WithContext(ctx).
		First(&posting, "source = ? AND external_id = ?", source, externalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &posting, nil
}

// GetByID retrieves a posting by its ID.
func (r *PostingRepository) GetByID(ctx context.Context, id string) (*domain.Posting, error) {
	var posting domain.Posting
	if err := r.db.WithContext(ctx).First(&posting, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &posting, nil
}

// Insert creates a new posting row.
func (r *PostingRepository) Insert(ctx context.Context, posting *domain.Posting) error {
	if posting.ID == "" {
		posting.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(posting).Error
}

// Update applies a partial patch to the posting row.
func (r *PostingRepository) Update(ctx context.Context, id string, patch map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&domain.Posting{}).
		Where("id = ?", id).
		Updates(patch).Error
}

// UpsertSource records a platform appearance for the posting: one row per
// (posting_id, source), with last_seen_at advanced on every sighting.
func (r *PostingRepository) UpsertSource(ctx context.Context, postingID, source, externalID, url string, now time.Time) error {
	row := &domain.PostingSource{
		ID:          uuid.New().String(),
		PostingID:   postingID,
		Source:      source,
		ExternalID:  externalID,
		URL:         url,
		FirstSeenAt: now,
		LastSeenAt:  now,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "posting_id"}, {Name: "source"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"external_id":  externalID,
			"url":          url,
			"last_seen_at": now,
		}),
	}).Create(row).Error
}

// ReplaceDescription rewrites the posting's description row.
func (r *PostingRepository) ReplaceDescription(ctx context.Context, postingID, rawHTML, cleaned string) error {
	row := &domain.JobDescription{
		ID:          uuid.New().String(),
		PostingID:   postingID,
		RawHTML:     rawHTML,
		CleanedText: cleaned,
		UpdatedAt:   time.Now(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "posting_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"raw_html":     rawHTML,
			"cleaned_text": cleaned,
			"updated_at":   row.UpdatedAt,
		}),
	}).Create(row).Error
}

// GetDescription retrieves the description row for a posting, or
// (nil, nil) when none exists.
func (r *PostingRepository) GetDescription(ctx context.Context, postingID string) (*domain.JobDescription, error) {
	var desc domain.JobDescription
	err := r.db.WithContext(ctx).First(&desc, "posting_id = ?", postingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &desc, nil
}

// MarkInactiveWhere flips every active posting not seen since the cutoff
// to inactive and stamps detected_inactive_at. Idempotent.
func (r *PostingRepository) MarkInactiveWhere(ctx context.Context, lastSeenBefore, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Posting{}).
		Where("is_active = ? AND last_seen_at < ?", true, lastSeenBefore).
		Updates(map[string]interface{}{
			"is_active":            false,
			"detected_inactive_at": now,
			"updated_at":           now,
		})
	return result.RowsAffected, result.Error
}

// PostingsNeedingEnrichment returns postings eligible for an enrichment
// attempt: never attempted, or failed transiently before the retry
// cutoff. Errors containing any of the permanent substrings are excluded
// for good.
func (r *PostingRepository) PostingsNeedingEnrichment(ctx context.Context, retryCutoff time.Time, permanentSubstrings []string, limit int) ([]domain.Posting, error) {
	if limit <= 0 {
		limit = defaultBatchLimit
	}
	notPermanent := make([]string, 0, len(permanentSubstrings))
	args := []interface{}{}
	for _, sub := range permanentSubstrings {
		notPermanent = append(notPermanent, "lower(ai_enrichment_error) NOT LIKE ?")
		args = append(args, "%"+strings.ToLower(sub)+"%")
	}
	retryCond := "ai_enrichment_error IS NOT NULL AND (ai_enriched_at IS NULL OR ai_enriched_at < ?)"
	if len(notPermanent) > 0 {
		retryCond = fmt.Sprintf("%s AND %s", retryCond, strings.Join(notPermanent, " AND "))
	}

	var postings []domain.Posting
	query := r.db.WithContext(ctx).
		Where("ai_enriched = ? AND is_active = ?", false, true).
		Where(
			fmt.Sprintf("(ai_enrichment_error IS NULL) OR (%s)", retryCond),
			append([]interface{}{retryCutoff}, args...)...,
		).
		Order("last_seen_at DESC").
		Limit(limit)
	if err := query.Find(&postings).Error; err != nil {
		return nil, err
	}
	return postings, nil
}

// ListNeedingRanking returns postings flagged for re-ranking.
func (r *PostingRepository) ListNeedingRanking(ctx context.Context, limit int) ([]domain.Posting, error) {
	if limit <= 0 {
		limit = defaultBatchLimit
	}
	var postings []domain.Posting
	if err := r.db.WithContext(ctx).
		Where("needs_ranking = ? AND is_active = ?", true, true).
		Order("last_seen_at DESC").
		Limit(limit).
		Find(&postings).Error; err != nil {
		return nil, err
	}
	return postings, nil
}

// ListActiveScored returns all active postings carrying a ranking score,
// best first, for position assignment.
func (r *PostingRepository) ListActiveScored(ctx context.Context) ([]domain.Posting, error) {
	var postings []domain.Posting
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND ranking_score IS NOT NULL", true).
		Order("ranking_score DESC, first_seen_at DESC").
		Find(&postings).Error; err != nil {
		return nil, err
	}
	return postings, nil
}

// CountByActive counts postings by activity state.
func (r *PostingRepository) CountByActive(ctx context.Context, active bool) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Posting{}).
		Where("is_active = ?", active).
		Count(&count).Error
	return count, err
}

// inactiveRow is the projection used by InactiveStats.
type inactiveRow struct {
	Source             string
	FirstSeenAt        time.Time
	DetectedInactiveAt *time.Time
}

// InactiveStats returns per-source counts and lifetimes for inactive
// postings. Aggregation happens in Go to stay portable across drivers.
func (r *PostingRepository) InactiveStats(ctx context.Context) (total int64, avgDays float64, bySource map[string]int64, err error) {
	var rows []inactiveRow
	if err = r.db.WithContext(ctx).
		Model(&domain.Posting{}).
		Select("source", "first_seen_at", "detected_inactive_at").
		Where("is_active = ?", false).
		Find(&rows).Error; err != nil {
		return 0, 0, nil, err
	}

	bySource = make(map[string]int64)
	var totalDays float64
	for _, row := range rows {
		total++
		bySource[row.Source]++
		if row.DetectedInactiveAt != nil {
			totalDays += row.DetectedInactiveAt.Sub(row.FirstSeenAt).Hours() / 24
		}
	}
	if total > 0 {
		avgDays = totalDays / float64(total)
	}
	return total, avgDays, bySource, nil
}
