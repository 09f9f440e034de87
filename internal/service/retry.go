package service

import (
	"strings"
	"time"

	"github.com/jobpulse/jobpulse/internal/domain"
)

// ErrorClass buckets enrichment failures by how they should be retried.
type ErrorClass string

const (
	ClassQuota     ErrorClass = "quota"
	ClassRateLimit ErrorClass = "rate_limit"
	ClassTimeout   ErrorClass = "timeout"
	ClassPermanent ErrorClass = "permanent"
	ClassUnknown   ErrorClass = "unknown"
)

// permanentSubstrings mark failures that will not heal with time: the
// input itself is the problem.
var permanentSubstrings = []string{"parse", "json", "invalid", "validation"}

// ClassifyEnrichmentError buckets a stored enrichment error message by
// case-insensitive substring match.
func ClassifyEnrichmentError(msg string) ErrorClass {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "quota"), strings.Contains(lower, "429"):
		return ClassQuota
	case strings.Contains(lower, "rate limit"), strings.Contains(lower, "too many requests"):
		return ClassRateLimit
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "timed out"):
		return ClassTimeout
	default:
		for _, sub := range permanentSubstrings {
			if strings.Contains(lower, sub) {
				return ClassPermanent
			}
		}
		return ClassUnknown
	}
}

// PermanentErrorSubstrings returns the substrings that disqualify a
// posting from retry, for composing store filters.
func PermanentErrorSubstrings() []string {
	out := make([]string, len(permanentSubstrings))
	copy(out, permanentSubstrings)
	return out
}

// RetryPolicy decides which postings are due for an enrichment attempt.
// The policy is stateless: no attempt counters live in memory or in the
// store, only the last error string and attempt timestamp.
type RetryPolicy struct {
	Delay time.Duration
}

// RetryCutoff returns the attempt-time threshold: failures older than this
// are due again.
func (p RetryPolicy) RetryCutoff(now time.Time) time.Time {
	return now.Add(-p.Delay)
}

// Eligible reports whether the posting should be attempted now: never
// attempted, or failed with a retryable error long enough ago.
func (p RetryPolicy) Eligible(posting *domain.Posting, now time.Time) bool {
	if posting.AIEnriched {
		return false
	}
	if posting.AIEnrichmentError == nil {
		return true
	}

	switch ClassifyEnrichmentError(*posting.AIEnrichmentError) {
	case ClassPermanent:
		return false
	default:
		// Quota, rate-limit, timeout, and unknown all retry after the delay.
		if posting.AIEnrichedAt == nil {
			return true
		}
		return posting.AIEnrichedAt.Before(p.RetryCutoff(now))
	}
}
