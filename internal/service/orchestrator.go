package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jobpulse/jobpulse/internal/config"
	"github.com/jobpulse/jobpulse/internal/domain"
	"github.com/jobpulse/jobpulse/internal/logger"
	"github.com/jobpulse/jobpulse/internal/provider"
	"github.com/jobpulse/jobpulse/internal/repository"
	"github.com/jobpulse/jobpulse/internal/strategy"
)

// ErrQueryNotFound is returned when a run is requested for an unknown query.
var ErrQueryNotFound = errors.New("scrape query not found")

// Provider failure types recorded in run metadata.
const (
	ErrorTypeQuota    = "quota"
	ErrorTypeAuth     = "auth"
	ErrorTypeTimeout  = "timeout"
	ErrorTypeProvider = "provider_failed"
	ErrorTypeUnknown  = "unknown"
)

// SnapshotArchiver stores raw snapshot payloads out of band. Archiving is
// best effort: failures are logged, never propagated into the run outcome.
type SnapshotArchiver interface {
	ArchiveSnapshot(ctx context.Context, platform, snapshotID string, records []provider.Record) (string, error)
}

// Orchestrator drives one scrape run end to end: resolve the query, pick a
// date range, trigger the provider, wait for the snapshot, ingest the
// records, and finalize the run row with counters and metadata.
type Orchestrator struct {
	queries    *repository.QueryRepository
	runs       *repository.RunRepository
	strategist *strategy.Strategist
	client     provider.Client
	processor  *Processor
	archiver   SnapshotArchiver
	cfg        *config.ProviderConfig
	log        *logger.Logger
}

// NewOrchestrator creates an Orchestrator. archiver may be nil to disable
// snapshot archiving.
func NewOrchestrator(
	queries *repository.QueryRepository,
	runs *repository.RunRepository,
	strategist *strategy.Strategist,
	client provider.Client,
	processor *Processor,
	archiver SnapshotArchiver,
	cfg *config.ProviderConfig,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		queries:    queries,
		runs:       runs,
		strategist: strategist,
		client:     client,
		processor:  processor,
		archiver:   archiver,
		cfg:        cfg,
		log:        log,
	}
}

// RunQuery executes one scrape run for the query. The returned run reflects
// its final persisted state. Cancelling ctx abandons the remote snapshot
// and finalizes the run as failed with cancellation metadata.
func (o *Orchestrator) RunQuery(ctx context.Context, queryID string, overrideDays *int) (*domain.ScrapeRun, error) {
	query, err := o.queries.GetByID(ctx, queryID)
	if err != nil {
		return nil, fmt.Errorf("load query: %w", err)
	}
	if query == nil {
		return nil, ErrQueryNotFound
	}

	startedAt := time.Now().UTC()
	run := &domain.ScrapeRun{
		QueryID:       query.ID,
		Platform:      query.Platform,
		Status:        domain.RunStatusPending,
		StartedAt:     startedAt,
		SearchQuery:   query.SearchQuery,
		LocationQuery: query.LocationQuery,
		Metadata:      domain.RunMetadata{},
	}
	if err := o.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	log := o.log.WithFields(logger.Fields{
		logger.FieldRunID:    run.ID,
		logger.FieldQueryID:  query.ID,
		logger.FieldPlatform: query.Platform,
	})
	log.WithField("search_query", query.SearchQuery).Info("Scrape run started")

	dateRange, warning, err := o.strategist.DetermineDateRange(ctx, query.ID, overrideDays)
	if err != nil {
		return o.failRun(ctx, run, startedAt, ErrorTypeUnknown, fmt.Errorf("determine date range: %w", err))
	}
	run.Metadata[domain.MetaDateRange] = string(dateRange)
	if warning != "" {
		run.Metadata[domain.MetaRangeWarning] = warning
		log.WithField("date_range", string(dateRange)).Warn("Gap since last success exceeds provider lookback")
	}

	if err := o.runs.Update(ctx, run.ID, map[string]interface{}{
		"status":   domain.RunStatusRunning,
		"metadata": run.Metadata,
	}); err != nil {
		return o.failRun(ctx, run, startedAt, ErrorTypeUnknown, fmt.Errorf("mark run running: %w", err))
	}
	run.Status = domain.RunStatusRunning

	snapshotID, err := o.client.Trigger(ctx, provider.TriggerRequest{
		Keyword:   query.SearchQuery,
		Location:  query.LocationQuery,
		TimeRange: string(dateRange),
		Country:   query.Country,
	})
	if err != nil {
		return o.finishWithProviderError(ctx, run, startedAt, err)
	}
	run.Metadata[domain.MetaSnapshotID] = snapshotID
	log.WithField(logger.FieldSnapshotID, snapshotID).Info("Snapshot triggered")

	records, err := o.client.WaitForCompletion(ctx, snapshotID, o.cfg.PollInterval(), o.cfg.RunDeadline())
	if err != nil {
		return o.finishWithProviderError(ctx, run, startedAt, err)
	}
	run.Metadata[domain.MetaJobsReturned] = len(records)
	log.WithField(logger.FieldCount, len(records)).Info("Snapshot downloaded")

	if o.archiver != nil && len(records) > 0 {
		if key, err := o.archiver.ArchiveSnapshot(ctx, query.Platform, snapshotID, records); err != nil {
			log.WithError(err).Warn("Snapshot archive failed, continuing")
		} else {
			log.WithField("archive_key", key).Debug("Snapshot archived")
		}
	}

	batch := o.processor.ProcessBatch(ctx, run.ID, query.Platform, records, time.Now().UTC())

	completedAt := time.Now().UTC()
	run.Metadata[domain.MetaDuration] = completedAt.Sub(startedAt).Seconds()
	if batch.JobsError > 0 {
		run.Metadata[domain.MetaJobsError] = batch.JobsError
		run.Metadata[domain.MetaErrorDetails] = batch.ErrorDetails
	}

	run.Status = domain.RunStatusCompleted
	run.CompletedAt = &completedAt
	run.JobsFound = batch.Total()
	run.JobsNew = batch.JobsNew
	run.JobsUpdated = batch.JobsUpdated
	if err := o.runs.Update(ctx, run.ID, map[string]interface{}{
		"status":       domain.RunStatusCompleted,
		"completed_at": completedAt,
		"jobs_found":   run.JobsFound,
		"jobs_new":     run.JobsNew,
		"jobs_updated": run.JobsUpdated,
		"metadata":     run.Metadata,
	}); err != nil {
		return run, fmt.Errorf("finalize run: %w", err)
	}

	log.WithFields(logger.Fields{
		"jobs_found":           run.JobsFound,
		"jobs_new":             run.JobsNew,
		"jobs_updated":         run.JobsUpdated,
		"jobs_skipped":         batch.JobsSkipped,
		"jobs_error":           batch.JobsError,
		logger.FieldDurationMs: completedAt.Sub(startedAt).Milliseconds(),
	}).Info("Scrape run completed")

	return run, nil
}

// finishWithProviderError finalizes the run after a trigger or wait
// failure, distinguishing manual cancellation from provider faults.
func (o *Orchestrator) finishWithProviderError(ctx context.Context, run *domain.ScrapeRun, startedAt time.Time, cause error) (*domain.ScrapeRun, error) {
	if errors.Is(cause, context.Canceled) {
		return o.cancelRun(run, startedAt, cause)
	}
	return o.failRun(ctx, run, startedAt, classifyProviderError(cause), cause)
}

// cancelRun finalizes a manually cancelled run. The remote snapshot is
// abandoned, never cancelled provider-side: a later run may still want its
// results and the provider expires snapshots on its own.
func (o *Orchestrator) cancelRun(run *domain.ScrapeRun, startedAt time.Time, cause error) (*domain.ScrapeRun, error) {
	now := time.Now().UTC()
	run.Metadata[domain.MetaCancelled] = true
	run.Metadata[domain.MetaCancelledAt] = now.Format(time.RFC3339)
	run.Metadata[domain.MetaPrevStatus] = string(run.Status)
	run.Metadata[domain.MetaDuration] = now.Sub(startedAt).Seconds()

	msg := "run cancelled"
	run.Status = domain.RunStatusFailed
	run.CompletedAt = &now
	run.ErrorMessage = &msg

	// The caller's context is gone; finalize with a fresh one so the row
	// is not left in running forever.
	err := o.runs.Update(context.Background(), run.ID, map[string]interface{}{
		"status":        domain.RunStatusFailed,
		"completed_at":  now,
		"error_message": msg,
		"metadata":      run.Metadata,
	})
	if err != nil {
		return run, fmt.Errorf("finalize cancelled run: %w", err)
	}

	o.log.WithField(logger.FieldRunID, run.ID).Info("Scrape run cancelled")
	return run, cause
}

// failRun finalizes the run as failed with a typed error in metadata.
func (o *Orchestrator) failRun(ctx context.Context, run *domain.ScrapeRun, startedAt time.Time, errorType string, cause error) (*domain.ScrapeRun, error) {
	now := time.Now().UTC()
	msg := cause.Error()
	run.Metadata[domain.MetaErrorType] = errorType
	run.Metadata[domain.MetaDuration] = now.Sub(startedAt).Seconds()

	run.Status = domain.RunStatusFailed
	run.CompletedAt = &now
	run.ErrorMessage = &msg

	if err := o.runs.Update(ctx, run.ID, map[string]interface{}{
		"status":        domain.RunStatusFailed,
		"completed_at":  now,
		"error_message": msg,
		"metadata":      run.Metadata,
	}); err != nil {
		o.log.WithField(logger.FieldRunID, run.ID).WithError(err).Error("Failed to finalize failed run")
	}

	o.log.WithFields(logger.Fields{
		logger.FieldRunID: run.ID,
		"error_type":      errorType,
	}).WithError(cause).Error("Scrape run failed")

	return run, cause
}

func classifyProviderError(err error) string {
	switch {
	case errors.Is(err, provider.ErrQuotaExceeded):
		return ErrorTypeQuota
	case errors.Is(err, provider.ErrAuth):
		return ErrorTypeAuth
	case errors.Is(err, provider.ErrSnapshotTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeTimeout
	case errors.Is(err, provider.ErrSnapshotFailed):
		return ErrorTypeProvider
	default:
		return ErrorTypeUnknown
	}
}
