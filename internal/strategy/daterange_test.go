package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/jobpulse/jobpulse/internal/domain"
)

type stubRunFinder struct {
	run *domain.ScrapeRun
	err error
}

func (s *stubRunFinder) LastSuccessfulRun(ctx context.Context, queryID string) (*domain.ScrapeRun, error) {
	return s.run, s.err
}

func completedRunAgo(age time.Duration) *domain.ScrapeRun {
	done := time.Now().Add(-age)
	return &domain.ScrapeRun{
		Status:      domain.RunStatusCompleted,
		StartedAt:   done.Add(-5 * time.Minute),
		CompletedAt: &done,
	}
}

func TestRangeForGap(t *testing.T) {
	tests := []struct {
		name     string
		gap      time.Duration
		expected DateRange
		warning  string
	}{
		{"one hour", time.Hour, RangePast24h, ""},
		{"exactly one day", 24 * time.Hour, RangePast24h, ""},
		{"just over one day", 24*time.Hour + time.Minute, RangePastWeek, ""},
		{"three days", 3 * 24 * time.Hour, RangePastWeek, ""},
		{"exactly seven days", 7 * 24 * time.Hour, RangePastWeek, ""},
		{"twenty days", 20 * 24 * time.Hour, RangePastMonth, ""},
		{"exactly thirty days", 30 * 24 * time.Hour, RangePastMonth, ""},
		{"forty days warns", 40 * 24 * time.Hour, RangePastMonth, WarningGapExceedsLookback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warning, err := RangeForGap(tt.gap)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("range = %s, want %s", got, tt.expected)
			}
			if warning != tt.warning {
				t.Errorf("warning = %q, want %q", warning, tt.warning)
			}
		})
	}
}

func TestDetermineDateRange_NoPriorRun(t *testing.T) {
	s := NewStrategist(&stubRunFinder{})

	got, warning, err := s.DetermineDateRange(context.Background(), "q1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != RangePastMonth {
		t.Errorf("range = %s, want past_month", got)
	}
	if warning != "" {
		t.Errorf("unexpected warning %q", warning)
	}
}

func TestDetermineDateRange_RecentRun(t *testing.T) {
	s := NewStrategist(&stubRunFinder{run: completedRunAgo(2 * time.Hour)})

	got, _, err := s.DetermineDateRange(context.Background(), "q1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != RangePast24h {
		t.Errorf("range = %s, want past_24h", got)
	}
}

func TestDetermineDateRange_Override(t *testing.T) {
	// Override must bypass history entirely.
	s := NewStrategist(&stubRunFinder{run: completedRunAgo(time.Hour)})

	override := 7
	got, _, err := s.DetermineDateRange(context.Background(), "q1", &override)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != RangePastWeek {
		t.Errorf("range = %s, want past_week", got)
	}
}

func TestMapDaysToRange(t *testing.T) {
	tests := []struct {
		days     int
		expected DateRange
	}{
		{0, RangePast24h},
		{1, RangePast24h},
		{2, RangePastWeek},
		{7, RangePastWeek},
		{8, RangePastMonth},
		{30, RangePastMonth},
		{90, RangePastMonth},
	}

	for _, tt := range tests {
		if got := MapDaysToRange(tt.days); got != tt.expected {
			t.Errorf("MapDaysToRange(%d) = %s, want %s", tt.days, got, tt.expected)
		}
	}
}

func TestShouldTrigger(t *testing.T) {
	now := time.Now()
	query := &domain.ScrapeQuery{Enabled: true, MinIntervalHours: 12}

	tests := []struct {
		name     string
		query    *domain.ScrapeQuery
		last     *domain.ScrapeRun
		expected bool
	}{
		{"never run", query, nil, true},
		{"interval elapsed", query, completedRunAgo(13 * time.Hour), true},
		{"interval not elapsed", query, completedRunAgo(2 * time.Hour), false},
		{"disabled query", &domain.ScrapeQuery{Enabled: false, MinIntervalHours: 12}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldTrigger(tt.query, tt.last, now); got != tt.expected {
				t.Errorf("ShouldTrigger = %v, want %v", got, tt.expected)
			}
		})
	}
}
