// Package provider wraps the external scraping provider's asynchronous
// snapshot API behind a narrow client interface. A snapshot is the
// provider's handle to one remote scrape job: trigger it, poll its status,
// download its results when ready.
package provider

import (
	"context"
	"errors"
	"time"
)

// Typed failures the orchestrator distinguishes. Anything else from the
// provider surfaces as a wrapped transport error.
var (
	// ErrQuotaExceeded signals a provider quota or rate limit.
	ErrQuotaExceeded = errors.New("provider quota exceeded")

	// ErrAuth signals a credential failure.
	ErrAuth = errors.New("provider authentication failed")

	// ErrSnapshotTimeout signals that WaitForCompletion exceeded its
	// deadline before the snapshot became ready.
	ErrSnapshotTimeout = errors.New("snapshot wait timed out")

	// ErrSnapshotFailed signals that the provider reported the snapshot
	// itself as failed.
	ErrSnapshotFailed = errors.New("snapshot failed on provider side")
)

// SnapshotState is the provider-side state of a snapshot.
type SnapshotState string

const (
	StateQueued  SnapshotState = "queued"
	StateRunning SnapshotState = "running"
	StateReady   SnapshotState = "ready"
	StateFailed  SnapshotState = "failed"
)

// SnapshotStatus is one status poll result.
type SnapshotStatus struct {
	State     SnapshotState
	Progress  int
	JobsCount int
}

// TriggerRequest describes one remote collection to start.
type TriggerRequest struct {
	Keyword   string
	Location  string
	TimeRange string
	Country   string
}

// Record is one raw job listing as returned by the provider. Missing
// fields decode to zero values; unknown provider fields are ignored.
type Record struct {
	ExternalID      string `json:"external_id"`
	Title           string `json:"title"`
	CompanyName     string `json:"company_name"`
	CompanyURL      string `json:"company_url,omitempty"`
	CompanyLogo     string `json:"company_logo,omitempty"`
	Industries      string `json:"industries,omitempty"`
	Location        string `json:"location"`
	URL             string `json:"url"`
	PostedDate      string `json:"posted_date,omitempty"`
	DescriptionHTML string `json:"description_html,omitempty"`
	ApplicantsCount *int   `json:"applicants_count,omitempty"`
	Seniority       string `json:"seniority,omitempty"`
	EmploymentType  string `json:"employment_type,omitempty"`
	Salary          string `json:"salary,omitempty"`
}

// Client is the capability surface the orchestrator consumes. All methods
// honor context cancellation; the real implementation propagates it to the
// in-flight HTTP request.
type Client interface {
	// Trigger starts a remote collection and returns its snapshot ID.
	Trigger(ctx context.Context, req TriggerRequest) (string, error)

	// Status polls the snapshot's progress.
	Status(ctx context.Context, snapshotID string) (*SnapshotStatus, error)

	// Download fetches the snapshot's records. Idempotent.
	Download(ctx context.Context, snapshotID string) ([]Record, error)

	// WaitForCompletion polls Status at pollInterval until the snapshot is
	// ready, then downloads its records. Fails with ErrSnapshotTimeout
	// once elapsed time exceeds timeout.
	WaitForCompletion(ctx context.Context, snapshotID string, pollInterval, timeout time.Duration) ([]Record, error)
}
