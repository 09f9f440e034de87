package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jobpulse/jobpulse/internal/config"
	"github.com/jobpulse/jobpulse/internal/domain"
	"github.com/jobpulse/jobpulse/internal/logger"
	"github.com/jobpulse/jobpulse/internal/repository"
)

// EnrichmentResult is the structured classification the model returns for
// one posting.
type EnrichmentResult struct {
	DataRoleType        string `json:"data_role_type"`
	TitleClassification string `json:"title_classification"`
}

// Enricher classifies one posting from its title and description text.
type Enricher interface {
	Enrich(ctx context.Context, title, description string) (*EnrichmentResult, error)
}

const enrichSystemPrompt = `You classify job postings. Respond with a JSON object with exactly two keys:
"data_role_type": one of "data_engineer", "data_analyst", "data_scientist", "ml_engineer", "analytics_engineer", "other".
"title_classification": a short normalized form of the job title.`

// OpenAIClient calls an OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	client *resty.Client
	model  string
}

// NewOpenAIClient creates a client against the configured endpoint.
func NewOpenAIClient(cfg *config.EnrichConfig) *OpenAIClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(60 * time.Second)
	return &OpenAIClient{client: client, model: cfg.Model}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Enrich sends one posting to the model. Error messages preserve the
// upstream wording so the retry policy can classify them.
func (c *OpenAIClient) Enrich(ctx context.Context, title, description string) (*EnrichmentResult, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: enrichSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Title: %s\n\nDescription:\n%s", title, description)},
		},
	}
	payload.ResponseFormat.Type = "json_object"

	var out chatResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&out).
		SetError(&out).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("enrichment request: %w", err)
	}
	if resp.IsError() {
		if out.Error != nil {
			return nil, fmt.Errorf("enrichment API %d: %s", resp.StatusCode(), out.Error.Message)
		}
		return nil, fmt.Errorf("enrichment API %d: %s", resp.StatusCode(), resp.String())
	}
	if len(out.Choices) == 0 {
		return nil, errors.New("enrichment response had no choices")
	}

	var result EnrichmentResult
	if err := json.Unmarshal([]byte(out.Choices[0].Message.Content), &result); err != nil {
		return nil, fmt.Errorf("parse enrichment json: %w", err)
	}
	if result.DataRoleType == "" {
		return nil, errors.New("invalid enrichment: empty data_role_type")
	}
	return &result, nil
}

// EnrichmentService runs enrichment passes over postings that need them,
// applying the stateless retry policy to pick candidates.
type EnrichmentService struct {
	postings *repository.PostingRepository
	enricher Enricher
	policy   RetryPolicy
	limit    int
	log      *logger.Logger
}

// NewEnrichmentService wires the service. limit caps how many postings one
// pass attempts; zero means the repository default.
func NewEnrichmentService(postings *repository.PostingRepository, enricher Enricher, policy RetryPolicy, limit int, log *logger.Logger) *EnrichmentService {
	return &EnrichmentService{
		postings: postings,
		enricher: enricher,
		policy:   policy,
		limit:    limit,
		log:      log,
	}
}

// RunPass attempts every eligible posting once. A failed attempt records
// the error and the attempt time; the posting becomes eligible again after
// the retry delay unless the failure was permanent. Returns attempted and
// succeeded counts.
func (s *EnrichmentService) RunPass(ctx context.Context, now time.Time) (int, int, error) {
	candidates, err := s.postings.PostingsNeedingEnrichment(ctx, s.policy.RetryCutoff(now), PermanentErrorSubstrings(), s.limit)
	if err != nil {
		return 0, 0, fmt.Errorf("select enrichment candidates: %w", err)
	}

	attempted, succeeded := 0, 0
	for i := range candidates {
		posting := &candidates[i]
		if !s.policy.Eligible(posting, now) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return attempted, succeeded, err
		}

		attempted++
		if err := s.enrichOne(ctx, posting, now); err != nil {
			s.log.WithField(logger.FieldPostingID, posting.ID).WithError(err).Warn("Enrichment attempt failed")
			continue
		}
		succeeded++
	}

	if attempted > 0 {
		s.log.WithFields(logger.Fields{
			"attempted": attempted,
			"succeeded": succeeded,
		}).Info("Enrichment pass finished")
	}
	return attempted, succeeded, nil
}

func (s *EnrichmentService) enrichOne(ctx context.Context, posting *domain.Posting, now time.Time) error {
	description := ""
	desc, err := s.postings.GetDescription(ctx, posting.ID)
	if err != nil {
		return fmt.Errorf("load description: %w", err)
	}
	if desc != nil {
		description = desc.CleanedText
	}

	result, err := s.enricher.Enrich(ctx, posting.Title, description)
	if err != nil {
		msg := err.Error()
		attemptPatch := map[string]interface{}{
			"ai_enriched":         false,
			"ai_enriched_at":      now,
			"ai_enrichment_error": msg,
		}
		if updateErr := s.postings.Update(ctx, posting.ID, attemptPatch); updateErr != nil {
			return fmt.Errorf("record enrichment failure: %w", updateErr)
		}
		return err
	}

	return s.postings.Update(ctx, posting.ID, map[string]interface{}{
		"ai_enriched":             true,
		"ai_enriched_at":          now,
		"ai_enrichment_error":     nil,
		"data_role_type":          result.DataRoleType,
		"title_classification":    result.TitleClassification,
		"enrichment_completed_at": now,
		"needs_ranking":           true,
	})
}
