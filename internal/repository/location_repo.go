package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jobpulse/jobpulse/internal/domain"
	"github.com/jobpulse/jobpulse/internal/normalize"
)

// LocationRepository handles location rows keyed by the parsed
// (city, region, country_code) tuple.
type LocationRepository struct {
	db *gorm.DB
}

// NewLocationRepository creates a new LocationRepository.
func NewLocationRepository(db *gorm.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// GetByID loads a location row, returning nil when it does not exist.
func (r *LocationRepository) GetByID(ctx context.Context, id string) (*domain.Location, error) {
	var loc domain.Location
	if err := r.db.WithContext(ctx).First(&loc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &loc, nil
}

// Upsert inserts the location tuple if absent and returns the row ID.
// Idempotent under concurrent callers for the same tuple.
func (r *LocationRepository) Upsert(ctx context.Context, loc normalize.ParsedLocation) (string, error) {
	var existing domain.Location
	err := r.db.WithContext(ctx).
		First(&existing, "city = ? AND region = ? AND country_code = ?", loc.City, loc.Region, loc.CountryCode).Error
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	row := &domain.Location{
		ID:          uuid.New().String(),
		City:        loc.City,
		Region:      loc.Region,
		CountryCode: loc.CountryCode,
		RawString:   loc.Raw,
		CreatedAt:   time.Now(),
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "city"}, {Name: "region"}, {Name: "country_code"}},
		DoNothing: true,
	}).Create(row)
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		if err := r.db.WithContext(ctx).
			First(&existing, "city = ? AND region = ? AND country_code = ?", loc.City, loc.Region, loc.CountryCode).Error; err != nil {
			return "", err
		}
		return existing.ID, nil
	}
	return row.ID, nil
}
