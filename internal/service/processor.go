package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jobpulse/jobpulse/internal/dedup"
	"github.com/jobpulse/jobpulse/internal/domain"
	"github.com/jobpulse/jobpulse/internal/logger"
	"github.com/jobpulse/jobpulse/internal/normalize"
	"github.com/jobpulse/jobpulse/internal/provider"
	"github.com/jobpulse/jobpulse/internal/repository"
)

// Record error kinds attached to run error details.
const (
	ErrKindValidation = "validation"
	ErrKindStore      = "store"
	ErrKindUnknown    = "unknown"
)

// RecordError wraps a per-record failure with its classification.
type RecordError struct {
	Kind string
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

func validationErr(err error) *RecordError {
	return &RecordError{Kind: ErrKindValidation, Err: err}
}

func storeErr(err error) *RecordError {
	return &RecordError{Kind: ErrKindStore, Err: err}
}

// BatchResult aggregates the outcome of one snapshot's record batch.
// JobsNew + JobsUpdated + JobsSkipped + JobsError always equals the number
// of records processed.
type BatchResult struct {
	JobsNew      int
	JobsUpdated  int
	JobsSkipped  int
	JobsError    int
	ErrorDetails []domain.ErrorDetail
}

// Total returns the number of records the batch accounted for.
func (r *BatchResult) Total() int {
	return r.JobsNew + r.JobsUpdated + r.JobsSkipped + r.JobsError
}

// Processor ingests provider records into the store: normalize, dedup,
// insert or update, and record detection history. One record failing never
// aborts the batch.
type Processor struct {
	companies *repository.CompanyRepository
	locations *repository.LocationRepository
	postings  *repository.PostingRepository
	history   *repository.HistoryRepository
	log       *logger.Logger
}

// NewProcessor creates a Processor over the given repositories.
func NewProcessor(
	companies *repository.CompanyRepository,
	locations *repository.LocationRepository,
	postings *repository.PostingRepository,
	history *repository.HistoryRepository,
	log *logger.Logger,
) *Processor {
	return &Processor{
		companies: companies,
		locations: locations,
		postings:  postings,
		history:   history,
		log:       log,
	}
}

// ProcessBatch runs every record through the ingestion pipeline and
// aggregates counters. Store failures get one retry before the record is
// counted as errored; validation failures do not retry.
func (p *Processor) ProcessBatch(ctx context.Context, runID, source string, records []provider.Record, now time.Time) *BatchResult {
	result := &BatchResult{}

	for i, rec := range records {
		decision, err := p.processRecord(ctx, runID, source, &rec, now)

		var recErr *RecordError
		if err != nil && errors.As(err, &recErr) && recErr.Kind == ErrKindStore {
			p.log.WithFields(logger.Fields{
				logger.FieldRunID: runID,
				"record_index":    i,
			}).WithError(err).Warn("Store error processing record, retrying once")
			decision, err = p.processRecord(ctx, runID, source, &rec, now)
		}

		if err != nil {
			kind := ErrKindUnknown
			if errors.As(err, &recErr) {
				kind = recErr.Kind
			}
			result.JobsError++
			result.ErrorDetails = append(result.ErrorDetails, domain.ErrorDetail{
				RecordIndex: i,
				Kind:        kind,
				Error:       err.Error(),
			})
			p.log.WithFields(logger.Fields{
				logger.FieldRunID: runID,
				"record_index":    i,
				"error_kind":      kind,
			}).WithError(err).Error("Failed to process record")
			continue
		}

		switch decision {
		case dedup.DecisionInsert:
			result.JobsNew++
		case dedup.DecisionUpdate:
			result.JobsUpdated++
		case dedup.DecisionSkip:
			result.JobsSkipped++
		}
	}

	return result
}

// processRecord runs the full pipeline for one record and returns the
// dedup decision taken.
func (p *Processor) processRecord(ctx context.Context, runID, source string, rec *provider.Record, now time.Time) (dedup.Decision, error) {
	if err := validateRecord(rec); err != nil {
		return "", validationErr(err)
	}

	company, err := normalize.Company(rec.CompanyName, rec.CompanyURL, rec.CompanyLogo, rec.Industries)
	if err != nil {
		return "", validationErr(err)
	}
	companyID, err := p.companies.Upsert(ctx, company)
	if err != nil {
		return "", storeErr(fmt.Errorf("upsert company: %w", err))
	}

	loc := normalize.Location(rec.Location)
	var locationID *string
	if !loc.IsEmpty() {
		id, err := p.locations.Upsert(ctx, loc)
		if err != nil {
			return "", storeErr(fmt.Errorf("upsert location: %w", err))
		}
		locationID = &id
	}

	cleaned := normalize.Description(rec.DescriptionHTML)

	incoming := &dedup.Fingerprint{
		Title:              rec.Title,
		EmploymentType:     rec.EmploymentType,
		Seniority:          rec.Seniority,
		ApplicantsCount:    rec.ApplicantsCount,
		Salary:             rec.Salary,
		LocationRaw:        loc.Raw,
		CompanyName:        company.Name,
		DescriptionCleaned: cleaned,
	}

	existing, err := p.postings.FindPosting(ctx, source, rec.ExternalID)
	if err != nil {
		return "", storeErr(fmt.Errorf("find posting: %w", err))
	}

	var existingFp *dedup.Fingerprint
	if existing != nil {
		fp, err := p.fingerprintOf(ctx, existing)
		if err != nil {
			return "", storeErr(err)
		}
		existingFp = fp
	}

	decision, changed := dedup.Decide(existing, existingFp, incoming)

	switch decision {
	case dedup.DecisionInsert:
		if err := p.insertPosting(ctx, runID, source, rec, company.Name, companyID, locationID, cleaned, incoming, now); err != nil {
			return decision, err
		}
	case dedup.DecisionUpdate:
		if err := p.updatePosting(ctx, runID, source, rec, existing, companyID, locationID, cleaned, incoming, changed, now); err != nil {
			return decision, err
		}
	case dedup.DecisionSkip:
		if err := p.touchPosting(ctx, source, rec, existing, now); err != nil {
			return decision, err
		}
	}

	return decision, nil
}

// fingerprintOf rebuilds the monitored-field fingerprint of a stored
// posting, loading its cleaned description text.
func (p *Processor) fingerprintOf(ctx context.Context, posting *domain.Posting) (*dedup.Fingerprint, error) {
	fp := &dedup.Fingerprint{
		Title:           posting.Title,
		EmploymentType:  posting.EmploymentType,
		Seniority:       posting.Seniority,
		ApplicantsCount: posting.ApplicantsCount,
		Salary:          posting.Salary,
	}

	company, err := p.companies.GetByID(ctx, posting.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("load company: %w", err)
	}
	if company != nil {
		fp.CompanyName = company.Name
	}

	if posting.LocationID != nil {
		loc, err := p.locations.GetByID(ctx, *posting.LocationID)
		if err != nil {
			return nil, fmt.Errorf("load location: %w", err)
		}
		if loc != nil {
			fp.LocationRaw = loc.RawString
		}
	}

	desc, err := p.postings.GetDescription(ctx, posting.ID)
	if err != nil {
		return nil, fmt.Errorf("load description: %w", err)
	}
	if desc != nil {
		fp.DescriptionCleaned = desc.CleanedText
	}

	return fp, nil
}

func (p *Processor) insertPosting(ctx context.Context, runID, source string, rec *provider.Record, companyName, companyID string, locationID *string, cleaned string, fp *dedup.Fingerprint, now time.Time) error {
	posting := &domain.Posting{
		Source:          source,
		ExternalID:      rec.ExternalID,
		CompanyID:       companyID,
		LocationID:      locationID,
		Title:           rec.Title,
		URL:             rec.URL,
		PostedAt:        parsePostedDate(rec.PostedDate),
		EmploymentType:  rec.EmploymentType,
		Seniority:       rec.Seniority,
		Salary:          rec.Salary,
		ApplicantsCount: rec.ApplicantsCount,
		IsActive:        true,
		FirstSeenAt:     now,
		LastSeenAt:      now,
		NeedsRanking:    true,
		DataHash:        fp.DataHash(),
	}
	if err := p.postings.Insert(ctx, posting); err != nil {
		return storeErr(fmt.Errorf("insert posting: %w", err))
	}

	if cleaned != "" || rec.DescriptionHTML != "" {
		if err := p.postings.ReplaceDescription(ctx, posting.ID, rec.DescriptionHTML, cleaned); err != nil {
			return storeErr(fmt.Errorf("store description: %w", err))
		}
	}
	if err := p.postings.UpsertSource(ctx, posting.ID, source, rec.ExternalID, rec.URL, now); err != nil {
		return storeErr(fmt.Errorf("upsert posting source: %w", err))
	}
	if err := p.history.Append(ctx, posting.ID, runID, now); err != nil {
		return storeErr(fmt.Errorf("append history: %w", err))
	}
	return nil
}

func (p *Processor) updatePosting(ctx context.Context, runID, source string, rec *provider.Record, existing *domain.Posting, companyID string, locationID *string, cleaned string, fp *dedup.Fingerprint, changed []string, now time.Time) error {
	patch := map[string]interface{}{
		"title":            rec.Title,
		"url":              rec.URL,
		"employment_type":  rec.EmploymentType,
		"seniority":        rec.Seniority,
		"salary":           rec.Salary,
		"applicants_count": rec.ApplicantsCount,
		"company_id":       companyID,
		"location_id":      locationID,
		"last_seen_at":     now,
		"data_hash":        fp.DataHash(),
	}
	if posted := parsePostedDate(rec.PostedDate); posted != nil {
		patch["posted_at"] = posted
	}
	if dedup.RankingInputChanged(changed) {
		patch["needs_ranking"] = true
	}
	// A posting seen again after being marked inactive comes back.
	if !existing.IsActive {
		patch["is_active"] = true
		patch["detected_inactive_at"] = nil
	}

	descriptionChanged := containsField(changed, "description")
	if descriptionChanged {
		// Fresh text invalidates a stale enrichment failure: the retry
		// pass should see this posting as never attempted.
		patch["ai_enrichment_error"] = nil
	}

	if err := p.postings.Update(ctx, existing.ID, patch); err != nil {
		return storeErr(fmt.Errorf("update posting: %w", err))
	}

	if descriptionChanged {
		if err := p.postings.ReplaceDescription(ctx, existing.ID, rec.DescriptionHTML, cleaned); err != nil {
			return storeErr(fmt.Errorf("store description: %w", err))
		}
	}
	if err := p.postings.UpsertSource(ctx, existing.ID, source, rec.ExternalID, rec.URL, now); err != nil {
		return storeErr(fmt.Errorf("upsert posting source: %w", err))
	}
	if err := p.history.Append(ctx, existing.ID, runID, now); err != nil {
		return storeErr(fmt.Errorf("append history: %w", err))
	}
	return nil
}

// touchPosting advances last_seen_at on an unchanged posting so the
// inactivity sweep knows it is still listed.
func (p *Processor) touchPosting(ctx context.Context, source string, rec *provider.Record, existing *domain.Posting, now time.Time) error {
	patch := map[string]interface{}{"last_seen_at": now}
	if !existing.IsActive {
		patch["is_active"] = true
		patch["detected_inactive_at"] = nil
	}
	if err := p.postings.Update(ctx, existing.ID, patch); err != nil {
		return storeErr(fmt.Errorf("touch posting: %w", err))
	}
	if err := p.postings.UpsertSource(ctx, existing.ID, source, rec.ExternalID, rec.URL, now); err != nil {
		return storeErr(fmt.Errorf("upsert posting source: %w", err))
	}
	return nil
}

func validateRecord(rec *provider.Record) error {
	if rec.ExternalID == "" {
		return errors.New("record missing external_id")
	}
	if rec.Title == "" {
		return errors.New("record missing title")
	}
	if rec.URL == "" {
		return errors.New("record missing url")
	}
	return nil
}

// parsePostedDate accepts the timestamp shapes the provider emits. Unknown
// shapes drop to nil rather than failing the record.
func parsePostedDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

func containsField(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}
