package analytics

import (
	"context"
	"sync"
)

var _ Service = (*MockAnalytics)(nil)

// MockAnalytics is a Service for tests. It stores records in memory
// and can be told to fail.
type MockAnalytics struct {
	mu      sync.Mutex
	Records []PassRecord
	Err     error
}

// NewMockAnalytics creates a new mock analytics instance
func NewMockAnalytics() *MockAnalytics {
	return &MockAnalytics{}
}

// RecordPass appends the record, or returns the configured error.
func (m *MockAnalytics) RecordPass(_ context.Context, rec PassRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Records = append(m.Records, rec)
	return nil
}

// Recorded returns a copy of the records seen so far.
func (m *MockAnalytics) Recorded() []PassRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PassRecord, len(m.Records))
	copy(out, m.Records)
	return out
}
