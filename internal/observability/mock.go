package observability

import (
	"sync"
	"time"
)

var _ MetricsRegistry = (*MockMetricsRegistry)(nil)

// MockMetricsRegistry is a MetricsRegistry for tests. It records counts
// instead of exporting them.
type MockMetricsRegistry struct {
	mu            sync.Mutex
	Requests      map[string]int
	Passes        map[string]int
	SourceFaults  map[string]int
	WriteFailures map[string]int
	Routed        map[string]int
	AnalyticsErrs int
}

// NewMockMetricsRegistry creates an empty mock registry.
func NewMockMetricsRegistry() *MockMetricsRegistry {
	return &MockMetricsRegistry{
		Requests:      make(map[string]int),
		Passes:        make(map[string]int),
		SourceFaults:  make(map[string]int),
		WriteFailures: make(map[string]int),
		Routed:        make(map[string]int),
	}
}

func (m *MockMetricsRegistry) IncrementRequests(endpoint, method, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests[endpoint+"/"+method+"/"+status]++
}

func (m *MockMetricsRegistry) RecordRequestLatency(string, string, time.Duration) {}

func (m *MockMetricsRegistry) IncrementPasses(pass string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Passes[pass]++
}

func (m *MockMetricsRegistry) IncrementSourceFaults(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SourceFaults[key]++
}

func (m *MockMetricsRegistry) IncrementWriteFailures(bidder string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteFailures[bidder]++
}

func (m *MockMetricsRegistry) AddSignalsRouted(class string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Routed[class] += n
}

func (m *MockMetricsRegistry) IncrementAnalyticsErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AnalyticsErrs++
}
