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

// CompanyRepository handles company rows. Identity is the normalized name;
// exactly one row exists per name and rows are never deleted here.
type CompanyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository creates a new CompanyRepository.
func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// Upsert creates or refreshes the company row for the normalized company
// and returns its ID. Safe under concurrent callers for the same name:
// the insert carries an ON CONFLICT DO NOTHING and the canonical row is
// re-read afterwards.
func (r *CompanyRepository) Upsert(ctx context.Context, nc *normalize.NormalizedCompany) (string, error) {
	var existing domain.Company
	err := r.db.WithContext(ctx).First(&existing, "name = ?", nc.Name).Error
	if err == nil {
		patch := map[string]interface{}{"updated_at": time.Now()}
		// Only overwrite enrichable fields when the incoming record has them.
		if nc.Website != "" {
			patch["website"] = nc.Website
		}
		if nc.LogoURL != "" {
			patch["logo_url"] = nc.LogoURL
		}
		if len(nc.Industries) > 0 {
			patch["industries"] = domain.StringArray(nc.Industries)
		}
		if err := r.db.WithContext(ctx).Model(&existing).Updates(patch).Error; err != nil {
			return "", err
		}
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	row := &domain.Company{
		ID:         uuid.New().String(),
		Name:       nc.Name,
		Website:    nc.Website,
		LogoURL:    nc.LogoURL,
		Industries: domain.StringArray(nc.Industries),
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(row)
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		// Lost the race to a concurrent insert; the winner's row is canonical.
		if err := r.db.WithContext(ctx).First(&existing, "name = ?", nc.Name).Error; err != nil {
			return "", err
		}
		return existing.ID, nil
	}
	return row.ID, nil
}

// GetByID retrieves a company by its ID.
func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	var company domain.Company
	if err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}
