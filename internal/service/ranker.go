package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jobpulse/jobpulse/internal/domain"
	"github.com/jobpulse/jobpulse/internal/logger"
	"github.com/jobpulse/jobpulse/internal/repository"
)

// roleWeights order postings by how central the role is to the feed.
var roleWeights = map[string]float64{
	"data_engineer":      1.0,
	"analytics_engineer": 0.9,
	"ml_engineer":        0.85,
	"data_scientist":     0.8,
	"data_analyst":       0.7,
	"other":              0.3,
}

// Score computes the deterministic ranking score for a posting. The score
// depends only on stored posting fields, so re-ranking the same posting
// always yields the same value.
func Score(posting *domain.Posting, now time.Time) float64 {
	score := 0.5
	if posting.DataRoleType != nil {
		if w, ok := roleWeights[*posting.DataRoleType]; ok {
			score = w
		}
	}

	switch strings.ToLower(posting.Seniority) {
	case "mid-senior level", "senior":
		score += 0.1
	case "director", "executive":
		score -= 0.1
	}

	if posting.Salary != "" {
		score += 0.05
	}

	// Freshness decays linearly over the first two weeks.
	ref := posting.FirstSeenAt
	if posting.PostedAt != nil {
		ref = *posting.PostedAt
	}
	ageDays := now.Sub(ref).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	freshness := 1 - ageDays/14
	if freshness < 0 {
		freshness = 0
	}
	score += 0.2 * freshness

	// Crowded postings rank slightly lower.
	if posting.ApplicantsCount != nil && *posting.ApplicantsCount > 100 {
		score -= 0.05
	}

	return score
}

// Ranker scores postings flagged for re-ranking and maintains the global
// position ordering over active scored postings.
type Ranker struct {
	postings *repository.PostingRepository
	limit    int
	log      *logger.Logger
}

// NewRanker creates a Ranker. limit caps how many flagged postings one pass
// scores.
func NewRanker(postings *repository.PostingRepository, limit int, log *logger.Logger) *Ranker {
	return &Ranker{postings: postings, limit: limit, log: log}
}

// RunPass scores every posting flagged needs_ranking, clears the flag, and
// reassigns positions across all active scored postings. Returns how many
// postings were rescored.
func (r *Ranker) RunPass(ctx context.Context, now time.Time) (int, error) {
	flagged, err := r.postings.ListNeedingRanking(ctx, r.limit)
	if err != nil {
		return 0, fmt.Errorf("list postings needing ranking: %w", err)
	}
	if len(flagged) == 0 {
		return 0, nil
	}

	rescored := 0
	for i := range flagged {
		posting := &flagged[i]
		score := Score(posting, now)
		if err := r.postings.Update(ctx, posting.ID, map[string]interface{}{
			"ranking_score":      score,
			"ranking_updated_at": now,
			"needs_ranking":      false,
		}); err != nil {
			r.log.WithField(logger.FieldPostingID, posting.ID).WithError(err).Error("Failed to store ranking score")
			continue
		}
		rescored++
	}

	if err := r.assignPositions(ctx); err != nil {
		return rescored, err
	}

	r.log.WithField(logger.FieldCount, rescored).Info("Ranking pass finished")
	return rescored, nil
}

// assignPositions rewrites ranking_position as the 1-based index in the
// score-descending order of active postings.
func (r *Ranker) assignPositions(ctx context.Context) error {
	ordered, err := r.postings.ListActiveScored(ctx)
	if err != nil {
		return fmt.Errorf("list scored postings: %w", err)
	}
	for i := range ordered {
		position := i + 1
		if ordered[i].RankingPosition != nil && *ordered[i].RankingPosition == position {
			continue
		}
		if err := r.postings.Update(ctx, ordered[i].ID, map[string]interface{}{
			"ranking_position": position,
		}); err != nil {
			return fmt.Errorf("assign position: %w", err)
		}
	}
	return nil
}
