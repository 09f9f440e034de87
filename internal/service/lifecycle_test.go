package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jobpulse/jobpulse/internal/domain"
	"github.com/jobpulse/jobpulse/internal/provider"
)

func TestMarkInactive(t *testing.T) {
	env := newTestEnv(t)
	lifecycle := NewLifecycle(env.postings, env.runs, env.log)
	ctx := context.Background()
	now := time.Now().UTC()

	stale := testRecord("stale")
	fresh := testRecord("fresh")
	env.processor.ProcessBatch(ctx, "run-1", "linkedin", []provider.Record{stale}, now.AddDate(0, 0, -20))
	env.processor.ProcessBatch(ctx, "run-2", "linkedin", []provider.Record{fresh}, now.Add(-time.Hour))

	count, err := lifecycle.MarkInactive(ctx, 14, now)
	if err != nil {
		t.Fatalf("MarkInactive: %v", err)
	}
	if count != 1 {
		t.Fatalf("retired %d postings, want 1", count)
	}

	stalePosting, _ := env.postings.FindPosting(ctx, "linkedin", "stale")
	if stalePosting.IsActive {
		t.Error("stale posting should be inactive")
	}
	if stalePosting.DetectedInactiveAt == nil {
		t.Error("detected_inactive_at not set on retired posting")
	}

	freshPosting, _ := env.postings.FindPosting(ctx, "linkedin", "fresh")
	if !freshPosting.IsActive {
		t.Error("fresh posting should stay active")
	}

	// Sweep is idempotent.
	again, err := lifecycle.MarkInactive(ctx, 14, now)
	if err != nil {
		t.Fatalf("second MarkInactive: %v", err)
	}
	if again != 0 {
		t.Errorf("second sweep retired %d postings, want 0", again)
	}
}

func TestReapStuckRuns(t *testing.T) {
	env := newTestEnv(t)
	lifecycle := NewLifecycle(env.postings, env.runs, env.log)
	ctx := context.Background()
	now := time.Now().UTC()

	stuck := &domain.ScrapeRun{
		QueryID:   "q1",
		Platform:  "linkedin",
		Status:    domain.RunStatusRunning,
		StartedAt: now.Add(-2 * time.Hour),
	}
	healthy := &domain.ScrapeRun{
		QueryID:   "q1",
		Platform:  "linkedin",
		Status:    domain.RunStatusRunning,
		StartedAt: now.Add(-5 * time.Minute),
	}
	if err := env.runs.Create(ctx, stuck); err != nil {
		t.Fatalf("create stuck run: %v", err)
	}
	if err := env.runs.Create(ctx, healthy); err != nil {
		t.Fatalf("create healthy run: %v", err)
	}

	reaped, err := lifecycle.ReapStuckRuns(ctx, 30, now)
	if err != nil {
		t.Fatalf("ReapStuckRuns: %v", err)
	}
	if reaped != 1 {
		t.Fatalf("reaped %d runs, want 1", reaped)
	}

	reapedRun, _ := env.runs.GetByID(ctx, stuck.ID)
	if reapedRun.Status != domain.RunStatusFailed {
		t.Errorf("status = %s, want failed", reapedRun.Status)
	}
	if reapedRun.ErrorMessage == nil || !strings.Contains(*reapedRun.ErrorMessage, "stuck") {
		t.Errorf("error_message = %v, want mention of stuck", reapedRun.ErrorMessage)
	}
	if got := reapedRun.Metadata.GetString(domain.MetaPrevStatus); got != string(domain.RunStatusRunning) {
		t.Errorf("previous_status = %q, want running", got)
	}

	healthyRun, _ := env.runs.GetByID(ctx, healthy.ID)
	if healthyRun.Status != domain.RunStatusRunning {
		t.Errorf("healthy run status = %s, want untouched", healthyRun.Status)
	}
}

func TestLifecycleSummary(t *testing.T) {
	env := newTestEnv(t)
	lifecycle := NewLifecycle(env.postings, env.runs, env.log)
	ctx := context.Background()
	now := time.Now().UTC()

	env.processor.ProcessBatch(ctx, "run-1", "linkedin",
		[]provider.Record{testRecord("a"), testRecord("b")}, now.AddDate(0, 0, -20))
	env.processor.ProcessBatch(ctx, "run-2", "indeed",
		[]provider.Record{testRecord("c")}, now.Add(-time.Hour))

	if _, err := lifecycle.MarkInactive(ctx, 14, now); err != nil {
		t.Fatalf("MarkInactive: %v", err)
	}

	summary, err := lifecycle.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.ActiveCount != 1 || summary.InactiveCount != 2 {
		t.Errorf("active=%d inactive=%d, want 1/2", summary.ActiveCount, summary.InactiveCount)
	}
	if summary.BySource["linkedin"] != 2 {
		t.Errorf("by_source[linkedin] = %d, want 2", summary.BySource["linkedin"])
	}
	if summary.AvgDaysInactive <= 0 {
		t.Errorf("avg_days_inactive = %f, want > 0", summary.AvgDaysInactive)
	}
}
