package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jobpulse/jobpulse/internal/domain"
)

// RunRepository handles scrape run rows.
type RunRepository struct {
	db *gorm.DB
}

// NewRunRepository creates a new RunRepository.
func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run row.
func (r *RunRepository) Create(ctx context.Context, run *domain.ScrapeRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.Metadata == nil {
		run.Metadata = domain.RunMetadata{}
	}
	return r.db.WithContext(ctx).Create(run).Error
}

// Update applies a partial patch to the run row. A run's metadata is
// written only by its owning orchestrator, so patches may carry the whole
// bag.
func (r *RunRepository) Update(ctx context.Context, id string, patch map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&domain.ScrapeRun{}).
		Where("id = ?", id).
		Updates(patch).Error
}

// GetByID retrieves a run by its ID, returning nil when it does not exist.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*domain.ScrapeRun, error) {
	var run domain.ScrapeRun
	if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

// LastSuccessfulRun returns the most recently completed run for the
// query, or nil when it has never succeeded.
func (r *RunRepository) LastSuccessfulRun(ctx context.Context, queryID string) (*domain.ScrapeRun, error) {
	var run domain.ScrapeRun
	err := r.db.WithContext(ctx).
		Where("query_id = ? AND status = ?", queryID, domain.RunStatusCompleted).
		Order("started_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRecent returns the most recent runs, optionally filtered by status.
func (r *RunRepository) ListRecent(ctx context.Context, status domain.RunStatus, limit int) ([]domain.ScrapeRun, error) {
	query := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var runs []domain.ScrapeRun
	if err := query.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// FindStuck returns runs still pending or running that started before the
// cutoff.
func (r *RunRepository) FindStuck(ctx context.Context, startedBefore time.Time) ([]domain.ScrapeRun, error) {
	var runs []domain.ScrapeRun
	if err := r.db.WithContext(ctx).
		Where("status IN ? AND started_at < ?", []domain.RunStatus{domain.RunStatusPending, domain.RunStatusRunning}, startedBefore).
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
