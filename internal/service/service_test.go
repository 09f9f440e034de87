package service

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/jobpulse/jobpulse/internal/config"
	"github.com/jobpulse/jobpulse/internal/logger"
	"github.com/jobpulse/jobpulse/internal/provider"
	"github.com/jobpulse/jobpulse/internal/repository"
)

// testEnv bundles a throwaway sqlite-backed repository set.
type testEnv struct {
	db        *gorm.DB
	companies *repository.CompanyRepository
	locations *repository.LocationRepository
	postings  *repository.PostingRepository
	history   *repository.HistoryRepository
	runs      *repository.RunRepository
	queries   *repository.QueryRepository
	processor *Processor
	log       *logger.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := repository.InitDB(&config.DatabaseConfig{
		Driver:      "sqlite",
		Path:        filepath.Join(t.TempDir(), "test.db"),
		AutoMigrate: true,
	})
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}

	log := logger.New(&logger.Config{Level: "error", Format: "text", ServiceName: "test"})

	env := &testEnv{
		db:        db,
		companies: repository.NewCompanyRepository(db),
		locations: repository.NewLocationRepository(db),
		postings:  repository.NewPostingRepository(db),
		history:   repository.NewHistoryRepository(db),
		runs:      repository.NewRunRepository(db),
		queries:   repository.NewQueryRepository(db),
		log:       log,
	}
	env.processor = NewProcessor(env.companies, env.locations, env.postings, env.history, log)
	return env
}

// testRecord builds a valid provider record with the given external ID.
func testRecord(externalID string) provider.Record {
	applicants := 12
	return provider.Record{
		ExternalID:      externalID,
		Title:           "Senior Data Engineer",
		CompanyName:     "Acme Analytics",
		CompanyURL:      "https://acme.example.com",
		Location:        "Berlin, Germany",
		URL:             "https://jobs.example.com/" + externalID,
		PostedDate:      "2026-08-20T10:00:00Z",
		DescriptionHTML: "<p>Build pipelines.</p><p>Own the warehouse.</p>",
		ApplicantsCount: &applicants,
		Seniority:       "Mid-Senior level",
		EmploymentType:  "Full-time",
		Salary:          "$150k-$180k",
	}
}
