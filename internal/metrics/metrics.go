package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	ItemsFetched      int64
	NewItems          int64
	SummariesOK       int64
	SummaryFallbacks  int64
	FetchFallbacks    int64
	ChunksDelivered   int64
	DuplicatesSkipped int64

	// Timings
	LastRunDuration  time.Duration
	TotalRunDuration time.Duration
	RunCount         int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) AddItemsFetched(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsFetched += int64(n)
}

func (m *Metrics) AddNewItems(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NewItems += int64(n)
}

func (m *Metrics) IncrementSummariesOK() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummariesOK++
}

func (m *Metrics) IncrementSummaryFallbacks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummaryFallbacks++
}

func (m *Metrics) IncrementFetchFallbacks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchFallbacks++
}

func (m *Metrics) IncrementChunksDelivered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChunksDelivered++
}

func (m *Metrics) IncrementDuplicatesSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesSkipped++
}

func (m *Metrics) RecordRunDuration(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastRunDuration = duration
	m.TotalRunDuration += duration
	m.RunCount++
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"items_fetched":        m.ItemsFetched,
		"new_items":            m.NewItems,
		"summaries_ok":         m.SummariesOK,
		"summary_fallbacks":    m.SummaryFallbacks,
		"fetch_fallbacks":      m.FetchFallbacks,
		"chunks_delivered":     m.ChunksDelivered,
		"duplicates_skipped":   m.DuplicatesSkipped,
		"last_run_duration_ms": m.LastRunDuration.Milliseconds(),
		"run_count":            m.RunCount,
		"last_run_time":        m.LastRunTime.Format(time.RFC3339),
		"last_error_time":      m.LastErrorTime.Format(time.RFC3339),
		"last_error":           m.LastError,
		"is_healthy":           m.IsHealthy,
	}
}
