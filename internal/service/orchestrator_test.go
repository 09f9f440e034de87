package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jobpulse/jobpulse/internal/config"
	"github.com/jobpulse/jobpulse/internal/domain"
	"github.com/jobpulse/jobpulse/internal/provider"
	"github.com/jobpulse/jobpulse/internal/strategy"
)

func newTestOrchestrator(t *testing.T, env *testEnv, client provider.Client) *Orchestrator {
	t.Helper()
	cfg := &config.ProviderConfig{
		PollIntervalSecs: 1,
		RunDeadlineSecs:  30,
	}
	return NewOrchestrator(env.queries, env.runs, strategy.NewStrategist(env.runs), client, env.processor, nil, cfg, env.log)
}

func seedQuery(t *testing.T, env *testEnv) *domain.ScrapeQuery {
	t.Helper()
	query := &domain.ScrapeQuery{
		SearchQuery:      "data engineer",
		LocationQuery:    "Berlin",
		Platform:         "linkedin",
		Country:          "DE",
		Enabled:          true,
		MinIntervalHours: 24,
	}
	if err := env.queries.Create(context.Background(), query); err != nil {
		t.Fatalf("create query: %v", err)
	}
	return query
}

func TestRunQuery_Completes(t *testing.T) {
	env := newTestEnv(t)
	query := seedQuery(t, env)
	client := provider.NewMockClient([]provider.Record{testRecord("j1"), testRecord("j2")})
	orch := newTestOrchestrator(t, env, client)

	run, err := orch.RunQuery(context.Background(), query.ID, nil)
	if err != nil {
		t.Fatalf("RunQuery: %v", err)
	}

	if run.Status != domain.RunStatusCompleted {
		t.Fatalf("status = %s, want completed", run.Status)
	}
	if run.JobsFound != 2 || run.JobsNew != 2 {
		t.Errorf("jobs_found=%d jobs_new=%d, want 2/2", run.JobsFound, run.JobsNew)
	}
	if run.CompletedAt == nil {
		t.Error("completed_at not set")
	}

	stored, err := env.runs.GetByID(context.Background(), run.ID)
	if err != nil || stored == nil {
		t.Fatalf("reload run: run=%v err=%v", stored, err)
	}
	// First run for the query scrapes the full month.
	if got := stored.Metadata.GetString(domain.MetaDateRange); got != string(strategy.RangePastMonth) {
		t.Errorf("date_range = %q, want %q", got, strategy.RangePastMonth)
	}
	if stored.Metadata.GetString(domain.MetaSnapshotID) == "" {
		t.Error("snapshot_id missing from metadata")
	}
	if got := stored.Metadata.GetInt(domain.MetaJobsReturned); got != 2 {
		t.Errorf("brightdata_jobs_returned = %d, want 2", got)
	}
}

func TestRunQuery_SecondRunUsesNarrowRange(t *testing.T) {
	env := newTestEnv(t)
	query := seedQuery(t, env)
	client := provider.NewMockClient([]provider.Record{testRecord("j1")})
	orch := newTestOrchestrator(t, env, client)
	ctx := context.Background()

	if _, err := orch.RunQuery(ctx, query.ID, nil); err != nil {
		t.Fatalf("first run: %v", err)
	}
	run, err := orch.RunQuery(ctx, query.ID, nil)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	stored, _ := env.runs.GetByID(ctx, run.ID)
	if got := stored.Metadata.GetString(domain.MetaDateRange); got != string(strategy.RangePast24h) {
		t.Errorf("date_range = %q, want %q right after a success", got, strategy.RangePast24h)
	}
	if run.JobsFound != 1 || run.JobsNew != 0 {
		t.Errorf("second run jobs_found=%d jobs_new=%d, want 1/0", run.JobsFound, run.JobsNew)
	}
}

func TestRunQuery_QuotaFailure(t *testing.T) {
	env := newTestEnv(t)
	query := seedQuery(t, env)
	client := provider.NewMockClient(nil)
	client.TriggerErr = provider.ErrQuotaExceeded
	orch := newTestOrchestrator(t, env, client)
	ctx := context.Background()

	run, err := orch.RunQuery(ctx, query.ID, nil)
	if !errors.Is(err, provider.ErrQuotaExceeded) {
		t.Fatalf("err = %v, want quota", err)
	}

	stored, _ := env.runs.GetByID(ctx, run.ID)
	if stored.Status != domain.RunStatusFailed {
		t.Fatalf("status = %s, want failed", stored.Status)
	}
	if got := stored.Metadata.GetString(domain.MetaErrorType); got != ErrorTypeQuota {
		t.Errorf("error_type = %q, want %q", got, ErrorTypeQuota)
	}
	if stored.ErrorMessage == nil {
		t.Error("error_message not set")
	}
	if stored.JobsFound != 0 {
		t.Errorf("jobs_found = %d, want 0", stored.JobsFound)
	}

	count, _ := env.history.CountByRun(ctx, run.ID)
	if count != 0 {
		t.Errorf("history rows = %d, want 0 for failed run", count)
	}
}

func TestRunQuery_SnapshotTimeout(t *testing.T) {
	env := newTestEnv(t)
	query := seedQuery(t, env)
	client := provider.NewMockClient(nil)
	client.WaitErr = provider.ErrSnapshotTimeout
	orch := newTestOrchestrator(t, env, client)

	run, err := orch.RunQuery(context.Background(), query.ID, nil)
	if !errors.Is(err, provider.ErrSnapshotTimeout) {
		t.Fatalf("err = %v, want snapshot timeout", err)
	}

	stored, _ := env.runs.GetByID(context.Background(), run.ID)
	if got := stored.Metadata.GetString(domain.MetaErrorType); got != ErrorTypeTimeout {
		t.Errorf("error_type = %q, want %q", got, ErrorTypeTimeout)
	}
	// Snapshot was triggered before the wait failed; its handle survives.
	if stored.Metadata.GetString(domain.MetaSnapshotID) == "" {
		t.Error("snapshot_id should be recorded even when the wait fails")
	}
}

func TestRunQuery_Cancelled(t *testing.T) {
	env := newTestEnv(t)
	query := seedQuery(t, env)
	client := provider.NewMockClient(nil)
	client.WaitErr = context.Canceled
	orch := newTestOrchestrator(t, env, client)

	run, err := orch.RunQuery(context.Background(), query.ID, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	stored, _ := env.runs.GetByID(context.Background(), run.ID)
	if stored.Status != domain.RunStatusFailed {
		t.Fatalf("status = %s, want failed", stored.Status)
	}
	if !stored.Metadata.GetBool(domain.MetaCancelled) {
		t.Error("cancelled_manually not set")
	}
	if got := stored.Metadata.GetString(domain.MetaPrevStatus); got != string(domain.RunStatusRunning) {
		t.Errorf("previous_status = %q, want running", got)
	}
	if stored.Metadata.GetString(domain.MetaCancelledAt) == "" {
		t.Error("cancelled_at not set")
	}
}

func TestRunQuery_UnknownQuery(t *testing.T) {
	env := newTestEnv(t)
	orch := newTestOrchestrator(t, env, provider.NewMockClient(nil))

	_, err := orch.RunQuery(context.Background(), "no-such-query", nil)
	if !errors.Is(err, ErrQueryNotFound) {
		t.Fatalf("err = %v, want ErrQueryNotFound", err)
	}
}

func TestRunQuery_RecordErrorsInMetadata(t *testing.T) {
	env := newTestEnv(t)
	query := seedQuery(t, env)

	bad := testRecord("j-bad")
	bad.ExternalID = ""
	client := provider.NewMockClient([]provider.Record{testRecord("j1"), bad})
	orch := newTestOrchestrator(t, env, client)

	run, err := orch.RunQuery(context.Background(), query.ID, nil)
	if err != nil {
		t.Fatalf("RunQuery: %v", err)
	}
	if run.Status != domain.RunStatusCompleted {
		t.Fatalf("status = %s, want completed despite record errors", run.Status)
	}
	if run.JobsFound != 2 || run.JobsNew != 1 {
		t.Errorf("jobs_found=%d jobs_new=%d, want 2/1", run.JobsFound, run.JobsNew)
	}

	stored, _ := env.runs.GetByID(context.Background(), run.ID)
	if got := stored.Metadata.GetInt(domain.MetaJobsError); got != 1 {
		t.Errorf("jobs_error = %d, want 1", got)
	}
	if _, ok := stored.Metadata[domain.MetaErrorDetails]; !ok {
		t.Error("error_details missing from metadata")
	}
}
