package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jobpulse/jobpulse/internal/domain"
)

// HistoryRepository handles the append-only scrape history.
type HistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append links a posting to the run that saw it.
func (r *HistoryRepository) Append(ctx context.Context, postingID, runID string, detectedAt time.Time) error {
	return r.db.WithContext(ctx).Create(&domain.ScrapeHistory{
		PostingID:  postingID,
		RunID:      runID,
		DetectedAt: detectedAt,
	}).Error
}

// ListByRun returns the history rows for a run in detection order,
// tie-breaking by insertion order.
func (r *HistoryRepository) ListByRun(ctx context.Context, runID string) ([]domain.ScrapeHistory, error) {
	var rows []domain.ScrapeHistory
	if err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("detected_at, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountByRun counts history rows for a run.
func (r *HistoryRepository) CountByRun(ctx context.Context, runID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.ScrapeHistory{}).
		Where("run_id = ?", runID).
		Count(&count).Error
	return count, err
}
