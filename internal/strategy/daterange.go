// Package strategy picks the scrape date horizon for a query based on how
// long ago it last succeeded, and gates how often a query may trigger.
package strategy

import (
	"context"
	"time"

	"github.com/jobpulse/jobpulse/internal/domain"
)

// DateRange is one of the three discrete horizons the provider exposes.
type DateRange string

const (
	RangePast24h   DateRange = "past_24h"
	RangePastWeek  DateRange = "past_week"
	RangePastMonth DateRange = "past_month"
)

// WarningGapExceedsLookback is attached when the gap since the last
// successful run is longer than the provider's maximum lookback, so
// postings older than a month may have been missed.
const WarningGapExceedsLookback = "gap exceeds max lookback"

// maxLookback is the provider's widest horizon.
const maxLookback = 30 * 24 * time.Hour

// LastRunFinder is the read capability the strategist needs: the most
// recent successful run for a query, nil when none exists.
type LastRunFinder interface {
	LastSuccessfulRun(ctx context.Context, queryID string) (*domain.ScrapeRun, error)
}

// Strategist chooses date ranges for scrape runs.
type Strategist struct {
	runs LastRunFinder
}

// NewStrategist creates a Strategist over the given run finder.
func NewStrategist(runs LastRunFinder) *Strategist {
	return &Strategist{runs: runs}
}

// DetermineDateRange picks the smallest provider horizon that still covers
// the gap since the query's last successful run. With no prior success the
// full month is scraped. overrideDays, when non-nil, bypasses the history
// lookup entirely. The returned warning is non-empty when the gap exceeds
// the maximum lookback.
func (s *Strategist) DetermineDateRange(ctx context.Context, queryID string, overrideDays *int) (DateRange, string, error) {
	if overrideDays != nil {
		return MapDaysToRange(*overrideDays), "", nil
	}

	last, err := s.runs.LastSuccessfulRun(ctx, queryID)
	if err != nil {
		return "", "", err
	}
	if last == nil {
		return RangePastMonth, "", nil
	}

	ref := last.StartedAt
	if last.CompletedAt != nil {
		ref = *last.CompletedAt
	}
	return RangeForGap(time.Since(ref))
}

// RangeForGap maps the elapsed time since the last success to a horizon.
// Boundary gaps resolve to the larger window: a gap of exactly one day
// still needs past_24h coverage, anything beyond it needs the week.
func RangeForGap(gap time.Duration) (DateRange, string, error) {
	switch {
	case gap <= 24*time.Hour:
		return RangePast24h, "", nil
	case gap <= 7*24*time.Hour:
		return RangePastWeek, "", nil
	case gap <= maxLookback:
		return RangePastMonth, "", nil
	default:
		return RangePastMonth, WarningGapExceedsLookback, nil
	}
}

// MapDaysToRange maps a day count to the smallest covering horizon, ties
// resolving to the larger window.
func MapDaysToRange(days int) DateRange {
	switch {
	case days <= 1:
		return RangePast24h
	case days <= 7:
		return RangePastWeek
	default:
		return RangePastMonth
	}
}

// ShouldTrigger reports whether the query is due for a new run: true iff
// there is no prior successful run or at least MinIntervalHours have
// elapsed since it.
func ShouldTrigger(query *domain.ScrapeQuery, last *domain.ScrapeRun, now time.Time) bool {
	if !query.Enabled {
		return false
	}
	if last == nil {
		return true
	}
	ref := last.StartedAt
	if last.CompletedAt != nil {
		ref = *last.CompletedAt
	}
	return now.Sub(ref) >= time.Duration(query.MinIntervalHours)*time.Hour
}
