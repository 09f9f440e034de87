package service

import (
	"context"
	"testing"
	"time"

	"github.com/jobpulse/jobpulse/internal/provider"
)

func TestProcessBatch_ColdStart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now().UTC()

	records := []provider.Record{testRecord("j1"), testRecord("j2"), testRecord("j3")}
	result := env.processor.ProcessBatch(ctx, "run-1", "linkedin", records, now)

	if result.JobsNew != 3 || result.JobsUpdated != 0 || result.JobsSkipped != 0 || result.JobsError != 0 {
		t.Fatalf("got new=%d updated=%d skipped=%d error=%d, want 3/0/0/0",
			result.JobsNew, result.JobsUpdated, result.JobsSkipped, result.JobsError)
	}
	if result.Total() != 3 {
		t.Errorf("Total() = %d, want 3", result.Total())
	}

	count, err := env.history.CountByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("CountByRun: %v", err)
	}
	if count != 3 {
		t.Errorf("history rows = %d, want 3", count)
	}

	posting, err := env.postings.FindPosting(ctx, "linkedin", "j1")
	if err != nil || posting == nil {
		t.Fatalf("FindPosting: posting=%v err=%v", posting, err)
	}
	if !posting.IsActive {
		t.Error("new posting should be active")
	}
	if !posting.NeedsRanking {
		t.Error("new posting should need ranking")
	}
	if posting.DataHash == "" {
		t.Error("new posting should carry a data hash")
	}
	if !posting.FirstSeenAt.Equal(posting.LastSeenAt) {
		t.Errorf("first_seen %v != last_seen %v on insert", posting.FirstSeenAt, posting.LastSeenAt)
	}
}

func TestProcessBatch_ReplayIsSkipped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	t0 := time.Now().UTC().Add(-time.Hour)

	records := []provider.Record{testRecord("j1"), testRecord("j2")}
	env.processor.ProcessBatch(ctx, "run-1", "linkedin", records, t0)

	t1 := t0.Add(time.Hour)
	result := env.processor.ProcessBatch(ctx, "run-2", "linkedin", records, t1)

	if result.JobsSkipped != 2 || result.JobsNew != 0 || result.JobsUpdated != 0 {
		t.Fatalf("got new=%d updated=%d skipped=%d, want 0/0/2",
			result.JobsNew, result.JobsUpdated, result.JobsSkipped)
	}

	posting, err := env.postings.FindPosting(ctx, "linkedin", "j1")
	if err != nil || posting == nil {
		t.Fatalf("FindPosting: posting=%v err=%v", posting, err)
	}
	if !posting.LastSeenAt.After(posting.FirstSeenAt) {
		t.Errorf("last_seen %v should advance past first_seen %v on replay",
			posting.LastSeenAt, posting.FirstSeenAt)
	}

	// No detection events for skips.
	count, _ := env.history.CountByRun(ctx, "run-2")
	if count != 0 {
		t.Errorf("history rows for replay run = %d, want 0", count)
	}
}

func TestProcessBatch_ApplicantsChangeFlagsRanking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	t0 := time.Now().UTC().Add(-time.Hour)

	rec := testRecord("j1")
	env.processor.ProcessBatch(ctx, "run-1", "linkedin", []provider.Record{rec}, t0)

	before, _ := env.postings.FindPosting(ctx, "linkedin", "j1")
	if err := env.postings.Update(ctx, before.ID, map[string]interface{}{"needs_ranking": false}); err != nil {
		t.Fatalf("clear needs_ranking: %v", err)
	}

	applicants := 47
	rec.ApplicantsCount = &applicants
	result := env.processor.ProcessBatch(ctx, "run-2", "linkedin", []provider.Record{rec}, t0.Add(time.Hour))

	if result.JobsUpdated != 1 {
		t.Fatalf("JobsUpdated = %d, want 1", result.JobsUpdated)
	}

	after, _ := env.postings.FindPosting(ctx, "linkedin", "j1")
	if after.ApplicantsCount == nil || *after.ApplicantsCount != 47 {
		t.Errorf("applicants_count = %v, want 47", after.ApplicantsCount)
	}
	if !after.NeedsRanking {
		t.Error("applicants change should flag needs_ranking")
	}
	if after.DataHash == before.DataHash {
		t.Error("data hash should change with applicants count")
	}
}

func TestProcessBatch_CompanyChangeDoesNotFlagRanking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	t0 := time.Now().UTC().Add(-time.Hour)

	rec := testRecord("j1")
	env.processor.ProcessBatch(ctx, "run-1", "linkedin", []provider.Record{rec}, t0)

	posting, _ := env.postings.FindPosting(ctx, "linkedin", "j1")
	env.postings.Update(ctx, posting.ID, map[string]interface{}{"needs_ranking": false})

	rec.CompanyName = "Acme Analytics GmbH"
	result := env.processor.ProcessBatch(ctx, "run-2", "linkedin", []provider.Record{rec}, t0.Add(time.Hour))

	if result.JobsUpdated != 1 {
		t.Fatalf("JobsUpdated = %d, want 1", result.JobsUpdated)
	}
	after, _ := env.postings.FindPosting(ctx, "linkedin", "j1")
	if after.NeedsRanking {
		t.Error("company rename alone should not flag needs_ranking")
	}
}

func TestProcessBatch_ReactivatesPosting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	t0 := time.Now().UTC().Add(-48 * time.Hour)

	rec := testRecord("j1")
	env.processor.ProcessBatch(ctx, "run-1", "linkedin", []provider.Record{rec}, t0)

	posting, _ := env.postings.FindPosting(ctx, "linkedin", "j1")
	inactiveAt := t0.Add(time.Hour)
	env.postings.Update(ctx, posting.ID, map[string]interface{}{
		"is_active":            false,
		"detected_inactive_at": inactiveAt,
	})

	env.processor.ProcessBatch(ctx, "run-2", "linkedin", []provider.Record{rec}, time.Now().UTC())

	after, _ := env.postings.FindPosting(ctx, "linkedin", "j1")
	if !after.IsActive {
		t.Error("posting seen again should be reactivated")
	}
	if after.DetectedInactiveAt != nil {
		t.Errorf("detected_inactive_at = %v, want nil after reactivation", after.DetectedInactiveAt)
	}
}

func TestProcessBatch_DescriptionChangeClearsEnrichmentError(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	t0 := time.Now().UTC().Add(-time.Hour)

	rec := testRecord("j1")
	env.processor.ProcessBatch(ctx, "run-1", "linkedin", []provider.Record{rec}, t0)

	posting, _ := env.postings.FindPosting(ctx, "linkedin", "j1")
	env.postings.Update(ctx, posting.ID, map[string]interface{}{
		"ai_enrichment_error": "openai timeout",
		"ai_enriched_at":      t0,
	})

	rec.DescriptionHTML = "<p>Completely new responsibilities.</p>"
	env.processor.ProcessBatch(ctx, "run-2", "linkedin", []provider.Record{rec}, t0.Add(time.Hour))

	after, _ := env.postings.FindPosting(ctx, "linkedin", "j1")
	if after.AIEnrichmentError != nil {
		t.Errorf("ai_enrichment_error = %q, want cleared after description change", *after.AIEnrichmentError)
	}

	desc, err := env.postings.GetDescription(ctx, posting.ID)
	if err != nil || desc == nil {
		t.Fatalf("GetDescription: desc=%v err=%v", desc, err)
	}
	if desc.CleanedText != "Completely new responsibilities." {
		t.Errorf("cleaned text = %q", desc.CleanedText)
	}
}

func TestProcessBatch_InvalidRecordCounted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bad := testRecord("j-bad")
	bad.Title = ""
	noCompany := testRecord("j-nc")
	noCompany.CompanyName = "   "

	result := env.processor.ProcessBatch(ctx, "run-1", "linkedin",
		[]provider.Record{testRecord("j1"), bad, noCompany}, time.Now().UTC())

	if result.JobsNew != 1 || result.JobsError != 2 {
		t.Fatalf("got new=%d error=%d, want 1/2", result.JobsNew, result.JobsError)
	}
	if len(result.ErrorDetails) != 2 {
		t.Fatalf("error details = %d, want 2", len(result.ErrorDetails))
	}
	for _, detail := range result.ErrorDetails {
		if detail.Kind != ErrKindValidation {
			t.Errorf("error kind = %q, want %q", detail.Kind, ErrKindValidation)
		}
	}
	if result.ErrorDetails[0].RecordIndex != 1 || result.ErrorDetails[1].RecordIndex != 2 {
		t.Errorf("record indexes = %d,%d, want 1,2",
			result.ErrorDetails[0].RecordIndex, result.ErrorDetails[1].RecordIndex)
	}
}

func TestProcessBatch_SharedCompanyRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	r1 := testRecord("j1")
	r2 := testRecord("j2")
	env.processor.ProcessBatch(ctx, "run-1", "linkedin", []provider.Record{r1, r2}, time.Now().UTC())

	p1, _ := env.postings.FindPosting(ctx, "linkedin", "j1")
	p2, _ := env.postings.FindPosting(ctx, "linkedin", "j2")
	if p1.CompanyID != p2.CompanyID {
		t.Errorf("postings of the same company got different company rows: %s vs %s", p1.CompanyID, p2.CompanyID)
	}
}
