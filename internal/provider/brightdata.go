package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jobpulse/jobpulse/internal/config"
)

// BrightDataClient talks to the BrightData datasets v3 API.
type BrightDataClient struct {
	client    *resty.Client
	datasetID string
}

// NewBrightDataClient creates a client from provider configuration.
func NewBrightDataClient(cfg *config.ProviderConfig) *BrightDataClient {
	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetHeader("Authorization", "Bearer "+cfg.APIToken)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(cfg.TriggerTimeout())

	return &BrightDataClient{
		client:    client,
		datasetID: cfg.DatasetID,
	}
}

type triggerPayload struct {
	Keyword   string `json:"keyword"`
	Location  string `json:"location"`
	TimeRange string `json:"time_range"`
	Country   string `json:"country"`
}

type triggerResponse struct {
	SnapshotID string `json:"snapshot_id"`
}

type progressResponse struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Records  int    `json:"records"`
}

// Trigger starts a remote collection for one (keyword, location) pair.
func (c *BrightDataClient) Trigger(ctx context.Context, req TriggerRequest) (string, error) {
	var result triggerResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"dataset_id":     c.datasetID,
			"include_errors": "true",
		}).
		SetBody([]triggerPayload{{
			Keyword:   req.Keyword,
			Location:  req.Location,
			TimeRange: req.TimeRange,
			Country:   req.Country,
		}}).
		SetResult(&result).
		Post("/trigger")

	if err != nil {
		return "", fmt.Errorf("trigger request failed: %w", err)
	}
	if err := classifyHTTPError(resp); err != nil {
		return "", err
	}
	if result.SnapshotID == "" {
		return "", fmt.Errorf("trigger returned no snapshot_id: %s", resp.Body())
	}
	return result.SnapshotID, nil
}

// Status polls the snapshot's progress endpoint.
func (c *BrightDataClient) Status(ctx context.Context, snapshotID string) (*SnapshotStatus, error) {
	var result progressResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/progress/" + snapshotID)

	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	if err := classifyHTTPError(resp); err != nil {
		return nil, err
	}

	return &SnapshotStatus{
		State:     mapProviderStatus(result.Status),
		Progress:  result.Progress,
		JobsCount: result.Records,
	}, nil
}

// Download fetches the snapshot's records as JSON. Idempotent: the
// provider serves a finished snapshot any number of times.
func (c *BrightDataClient) Download(ctx context.Context, snapshotID string) ([]Record, error) {
	var records []Record
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("format", "json").
		SetResult(&records).
		Get("/snapshot/" + snapshotID)

	if err != nil {
		return nil, fmt.Errorf("download request failed: %w", err)
	}
	if err := classifyHTTPError(resp); err != nil {
		return nil, err
	}
	return records, nil
}

// WaitForCompletion polls Status at pollInterval until the snapshot is
// ready, then downloads the records. Cancellation is observed between
// polls and propagated into each request.
func (c *BrightDataClient) WaitForCompletion(ctx context.Context, snapshotID string, pollInterval, timeout time.Duration) ([]Record, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		status, err := c.Status(ctx, snapshotID)
		if err != nil {
			return nil, err
		}

		switch status.State {
		case StateReady:
			return c.Download(ctx, snapshotID)
		case StateFailed:
			return nil, fmt.Errorf("%w: snapshot %s", ErrSnapshotFailed, snapshotID)
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: snapshot %s after %s", ErrSnapshotTimeout, snapshotID, timeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// mapProviderStatus translates the provider's status vocabulary into ours.
func mapProviderStatus(s string) SnapshotState {
	switch strings.ToLower(s) {
	case "ready", "done", "completed":
		return StateReady
	case "failed", "error":
		return StateFailed
	case "queued", "scheduled", "collecting":
		return StateQueued
	default:
		return StateRunning
	}
}

// classifyHTTPError maps provider HTTP failures onto the typed errors the
// orchestrator branches on.
func classifyHTTPError(resp *resty.Response) error {
	code := resp.StatusCode()
	if code >= 200 && code < 300 {
		return nil
	}

	body := strings.ToLower(string(resp.Body()))
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d", ErrAuth, code)
	case code == http.StatusTooManyRequests || strings.Contains(body, "quota"):
		return fmt.Errorf("%w: HTTP %d", ErrQuotaExceeded, code)
	default:
		return fmt.Errorf("provider returned HTTP %d: %s", code, resp.Body())
	}
}
