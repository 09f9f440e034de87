package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jobpulse/jobpulse/internal/domain"
)

// QueryRepository handles scrape query rows.
type QueryRepository struct {
	db *gorm.DB
}

// NewQueryRepository creates a new QueryRepository.
func NewQueryRepository(db *gorm.DB) *QueryRepository {
	return &QueryRepository{db: db}
}

// Create inserts a new scrape query.
func (r *QueryRepository) Create(ctx context.Context, query *domain.ScrapeQuery) error {
	if query.ID == "" {
		query.ID = uuid.New().String()
	}
	query.CreatedAt = time.Now()
	query.UpdatedAt = query.CreatedAt
	return r.db.WithContext(ctx).Create(query).Error
}

// GetByID retrieves a scrape query by its ID, returning nil when it does
// not exist.
func (r *QueryRepository) GetByID(ctx context.Context, id string) (*domain.ScrapeQuery, error) {
	var query domain.ScrapeQuery
	if err := r.db.WithContext(ctx).First(&query, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &query, nil
}

// ListEnabled returns all enabled scrape queries.
func (r *QueryRepository) ListEnabled(ctx context.Context) ([]domain.ScrapeQuery, error) {
	var queries []domain.ScrapeQuery
	if err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("created_at").
		Find(&queries).Error; err != nil {
		return nil, err
	}
	return queries, nil
}

// List returns all scrape queries.
func (r *QueryRepository) List(ctx context.Context) ([]domain.ScrapeQuery, error) {
	var queries []domain.ScrapeQuery
	if err := r.db.WithContext(ctx).Order("created_at").Find(&queries).Error; err != nil {
		return nil, err
	}
	return queries, nil
}
