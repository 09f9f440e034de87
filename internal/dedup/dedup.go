// Package dedup decides whether an incoming posting is new, a meaningful
// update of an existing row, or a no-op. It only reads; all writes belong
// to the ingestion processor.
package dedup

import (
	"context"

	"github.com/jobpulse/jobpulse/internal/domain"
)

// Decision is the outcome of comparing an incoming record against the
// store.
type Decision string

const (
	DecisionInsert Decision = "insert"
	DecisionUpdate Decision = "update"
	DecisionSkip   Decision = "skip"
)

// PostingFinder is the narrow read capability the deduplicator needs.
// A nil posting with nil error means no existing row.
type PostingFinder interface {
	FindPosting(ctx context.Context, source, externalID string) (*domain.Posting, error)
}

// Deduplicator looks up existing postings by (source, external_id) and
// compares monitored fields.
type Deduplicator struct {
	finder PostingFinder
}

// NewDeduplicator creates a Deduplicator over the given finder.
func NewDeduplicator(finder PostingFinder) *Deduplicator {
	return &Deduplicator{finder: finder}
}

// FindExisting returns the existing posting for (source, external_id) or
// nil when none exists.
func (d *Deduplicator) FindExisting(ctx context.Context, source, externalID string) (*domain.Posting, error) {
	return d.finder.FindPosting(ctx, source, externalID)
}

// Decide compares an existing posting (nil for none) against the incoming
// fingerprint and returns the update decision plus the names of meaningful
// fields that changed. The fast path is the stored data hash: equal hashes
// skip the per-field comparison entirely.
func Decide(existing *domain.Posting, existingFp, incoming *Fingerprint) (Decision, []string) {
	if existing == nil {
		return DecisionInsert, nil
	}

	if existing.DataHash != "" && existing.DataHash == incoming.DataHash() {
		return DecisionSkip, nil
	}

	changed := ChangedFields(existingFp, incoming)
	if len(changed) == 0 {
		return DecisionSkip, nil
	}
	return DecisionUpdate, changed
}

// ChangedFields returns the names of monitored fields whose values differ
// between the two fingerprints.
func ChangedFields(a, b *Fingerprint) []string {
	var changed []string
	if a.Title != b.Title {
		changed = append(changed, "title")
	}
	if a.EmploymentType != b.EmploymentType {
		changed = append(changed, "employment_type")
	}
	if a.Seniority != b.Seniority {
		changed = append(changed, "seniority")
	}
	if !intPtrEqual(a.ApplicantsCount, b.ApplicantsCount) {
		changed = append(changed, "applicants_count")
	}
	if a.Salary != b.Salary {
		changed = append(changed, "salary")
	}
	if a.LocationRaw != b.LocationRaw {
		changed = append(changed, "location")
	}
	if a.CompanyName != b.CompanyName {
		changed = append(changed, "company")
	}
	if a.DescriptionCleaned != b.DescriptionCleaned {
		changed = append(changed, "description")
	}
	return changed
}

// RankingInputChanged reports whether any changed field feeds the ranking
// scorer, which decides whether needs_ranking must be set on update.
func RankingInputChanged(changedFields []string) bool {
	for _, f := range changedFields {
		switch f {
		case "title", "employment_type", "seniority", "salary", "applicants_count", "description":
			return true
		}
	}
	return false
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
