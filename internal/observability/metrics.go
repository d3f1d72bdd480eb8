package observability

import (
	"sync"
)

// Metrics provides basic in-memory counters for the event pipeline.
type Metrics struct {
	mu            sync.Mutex
	updateCount   map[string]int64
	uploadCount   map[string]int64
	backendErrors map[string]int64
	duplicates    int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		updateCount:   make(map[string]int64),
		uploadCount:   make(map[string]int64),
		backendErrors: make(map[string]int64),
	}
}

// RecordUpdate increments the counter for an inbound event kind.
func (m *Metrics) RecordUpdate(kind string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCount[kind]++
}

// RecordDuplicate counts replayed events dropped by the deduplicator.
func (m *Metrics) RecordDuplicate() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duplicates++
}

// RecordUpload increments per-outcome upload counters ("completed", or the
// name of the step that failed).
func (m *Metrics) RecordUpload(outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadCount[outcome]++
}

// RecordBackendError increments error counters per backend operation.
func (m *Metrics) RecordBackendError(op string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backendErrors[op]++
}

// Duplicates returns the replayed-event count.
func (m *Metrics) Duplicates() int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duplicates
}
