package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jobpulse/jobpulse/internal/domain"
	"github.com/jobpulse/jobpulse/internal/logger"
	"github.com/jobpulse/jobpulse/internal/repository"
)

// Lifecycle handles the periodic sweeps: retiring postings that stopped
// appearing in scrapes and failing runs that never finished.
type Lifecycle struct {
	postings *repository.PostingRepository
	runs     *repository.RunRepository
	log      *logger.Logger
}

// NewLifecycle creates a Lifecycle over the given repositories.
func NewLifecycle(postings *repository.PostingRepository, runs *repository.RunRepository, log *logger.Logger) *Lifecycle {
	return &Lifecycle{postings: postings, runs: runs, log: log}
}

// MarkInactive retires every active posting not seen within thresholdDays.
// Returns the number of postings retired.
func (l *Lifecycle) MarkInactive(ctx context.Context, thresholdDays int, now time.Time) (int64, error) {
	cutoff := now.AddDate(0, 0, -thresholdDays)
	count, err := l.postings.MarkInactiveWhere(ctx, cutoff, now)
	if err != nil {
		return 0, fmt.Errorf("mark inactive: %w", err)
	}
	if count > 0 {
		l.log.WithFields(logger.Fields{
			logger.FieldCount: count,
			"threshold_days":  thresholdDays,
		}).Info("Marked postings inactive")
	}
	return count, nil
}

// ReapStuckRuns fails runs still pending or running past maxRunMinutes.
// A run can be orphaned by a crash or deploy mid-scrape; without the reaper
// it would block its query's trigger gate forever.
func (l *Lifecycle) ReapStuckRuns(ctx context.Context, maxRunMinutes int, now time.Time) (int, error) {
	startedBefore := now.Add(-time.Duration(maxRunMinutes) * time.Minute)
	stuck, err := l.runs.FindStuck(ctx, startedBefore)
	if err != nil {
		return 0, fmt.Errorf("find stuck runs: %w", err)
	}

	reaped := 0
	for _, run := range stuck {
		msg := fmt.Sprintf("run stuck >%d min, reaped", maxRunMinutes)
		metadata := run.Metadata
		if metadata == nil {
			metadata = domain.RunMetadata{}
		}
		metadata[domain.MetaPrevStatus] = string(run.Status)
		metadata[domain.MetaErrorType] = ErrorTypeTimeout

		if err := l.runs.Update(ctx, run.ID, map[string]interface{}{
			"status":        domain.RunStatusFailed,
			"completed_at":  now,
			"error_message": msg,
			"metadata":      metadata,
		}); err != nil {
			l.log.WithField(logger.FieldRunID, run.ID).WithError(err).Error("Failed to reap stuck run")
			continue
		}
		reaped++
		l.log.WithFields(logger.Fields{
			logger.FieldRunID: run.ID,
			"started_at":      run.StartedAt,
		}).Warn("Reaped stuck run")
	}
	return reaped, nil
}

// InactiveSummary reports on the retired posting population.
type InactiveSummary struct {
	ActiveCount     int64            `json:"active_count"`
	InactiveCount   int64            `json:"inactive_count"`
	AvgDaysInactive float64          `json:"avg_days_inactive"`
	BySource        map[string]int64 `json:"by_source"`
}

// Summary aggregates active and inactive posting counts for reporting.
func (l *Lifecycle) Summary(ctx context.Context) (*InactiveSummary, error) {
	active, err := l.postings.CountByActive(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("count active: %w", err)
	}
	inactive, avgDays, bySource, err := l.postings.InactiveStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("inactive stats: %w", err)
	}
	return &InactiveSummary{
		ActiveCount:     active,
		InactiveCount:   inactive,
		AvgDaysInactive: avgDays,
		BySource:        bySource,
	}, nil
}
