package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockClient is an in-memory Client with the same contract as the real
// provider. Used by tests and when the mock-provider config switch is on.
type MockClient struct {
	mu sync.Mutex

	// Records are returned by every snapshot download.
	Records []Record

	// TriggerErr, when set, is returned by Trigger.
	TriggerErr error

	// WaitErr, when set, is returned by WaitForCompletion.
	WaitErr error

	// PollsUntilReady is how many Status calls report running before the
	// snapshot turns ready.
	PollsUntilReady int

	snapshots     map[string]int // snapshot id -> polls seen
	TriggerCalls  int
	DownloadCalls int
}

// NewMockClient creates a mock serving the given records.
func NewMockClient(records []Record) *MockClient {
	return &MockClient{
		Records:   records,
		snapshots: make(map[string]int),
	}
}

// Trigger starts a fake snapshot and returns its ID.
func (m *MockClient) Trigger(ctx context.Context, req TriggerRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TriggerCalls++
	if m.TriggerErr != nil {
		return "", m.TriggerErr
	}
	if m.snapshots == nil {
		m.snapshots = make(map[string]int)
	}

	id := "mock-" + uuid.New().String()
	m.snapshots[id] = 0
	return id, nil
}

// Status reports running until PollsUntilReady polls have happened, then
// ready.
func (m *MockClient) Status(ctx context.Context, snapshotID string) (*SnapshotStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	polls, ok := m.snapshots[snapshotID]
	if !ok {
		return nil, fmt.Errorf("unknown snapshot %s", snapshotID)
	}
	m.snapshots[snapshotID] = polls + 1

	if polls < m.PollsUntilReady {
		return &SnapshotStatus{State: StateRunning, Progress: 50}, nil
	}
	return &SnapshotStatus{State: StateReady, Progress: 100, JobsCount: len(m.Records)}, nil
}

// Download returns the configured records.
func (m *MockClient) Download(ctx context.Context, snapshotID string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DownloadCalls++
	if _, ok := m.snapshots[snapshotID]; !ok {
		return nil, fmt.Errorf("unknown snapshot %s", snapshotID)
	}
	out := make([]Record, len(m.Records))
	copy(out, m.Records)
	return out, nil
}

// WaitForCompletion polls Status then downloads, like the real client but
// without sleeping between polls.
func (m *MockClient) WaitForCompletion(ctx context.Context, snapshotID string, pollInterval, timeout time.Duration) ([]Record, error) {
	if m.WaitErr != nil {
		return nil, m.WaitErr
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		status, err := m.Status(ctx, snapshotID)
		if err != nil {
			return nil, err
		}
		if status.State == StateReady {
			return m.Download(ctx, snapshotID)
		}
	}
}
