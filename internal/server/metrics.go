package server

import (
	"sync"
	"time"

	"github.com/gobeyondidentity/ssoctl/internal/integration"
)

// Metrics collects and tracks synchronization metrics
type Metrics struct {
	mu                   sync.RWMutex
	totalSyncs           int
	successfulSyncs      int
	failedSyncs          int
	totalSessionsAdded   int
	totalSessionsRemoved int
	lastSyncDuration     time.Duration
	averageSyncDuration  time.Duration
	lastSyncTime         *time.Time
	lastError            error
	uptime               time.Time
}

// MetricsStats represents the current metrics statistics
type MetricsStats struct {
	TotalSyncs           int           `json:"total_syncs"`
	SuccessfulSyncs      int           `json:"successful_syncs"`
	FailedSyncs          int           `json:"failed_syncs"`
	SuccessRate          float64       `json:"success_rate"`
	TotalSessionsAdded   int           `json:"total_sessions_added"`
	TotalSessionsRemoved int           `json:"total_sessions_removed"`
	LastSyncDuration     time.Duration `json:"last_sync_duration"`
	AverageSyncDuration  time.Duration `json:"average_sync_duration"`
	LastSyncTime         *time.Time    `json:"last_sync_time"`
	LastError            string        `json:"last_error,omitempty"`
	Uptime               time.Duration `json:"uptime"`
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		uptime: time.Now(),
	}
}

// RecordSync records a successful sync of one integration
func (m *Metrics) RecordSync(diff *integration.SessionDiff, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalSyncs++
	m.successfulSyncs++
	if diff != nil {
		m.totalSessionsAdded += len(diff.SessionsToAdd)
		m.totalSessionsRemoved += len(diff.SessionsToDelete)
	}
	m.lastError = nil

	m.recordDuration(duration)
}

// RecordFailedSync records a failed sync of one integration
func (m *Metrics) RecordFailedSync(err error, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalSyncs++
	m.failedSyncs++
	m.lastError = err

	m.recordDuration(duration)
}

// recordDuration updates duration statistics; callers hold the lock
func (m *Metrics) recordDuration(duration time.Duration) {
	m.lastSyncDuration = duration

	totalDuration := time.Duration(int64(m.averageSyncDuration) * int64(m.totalSyncs-1))
	m.averageSyncDuration = (totalDuration + duration) / time.Duration(m.totalSyncs)

	now := time.Now()
	m.lastSyncTime = &now
}

// GetStats returns the current metrics statistics
func (m *Metrics) GetStats() *MetricsStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var successRate float64
	if m.totalSyncs > 0 {
		successRate = float64(m.successfulSyncs) / float64(m.totalSyncs) * 100
	}

	var lastErrorStr string
	if m.lastError != nil {
		lastErrorStr = m.lastError.Error()
	}

	return &MetricsStats{
		TotalSyncs:           m.totalSyncs,
		SuccessfulSyncs:      m.successfulSyncs,
		FailedSyncs:          m.failedSyncs,
		SuccessRate:          successRate,
		TotalSessionsAdded:   m.totalSessionsAdded,
		TotalSessionsRemoved: m.totalSessionsRemoved,
		LastSyncDuration:     m.lastSyncDuration,
		AverageSyncDuration:  m.averageSyncDuration,
		LastSyncTime:         m.lastSyncTime,
		LastError:            lastErrorStr,
		Uptime:               time.Since(m.uptime),
	}
}

// Reset resets all metrics
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalSyncs = 0
	m.successfulSyncs = 0
	m.failedSyncs = 0
	m.totalSessionsAdded = 0
	m.totalSessionsRemoved = 0
	m.lastSyncDuration = 0
	m.averageSyncDuration = 0
	m.lastSyncTime = nil
	m.lastError = nil
	m.uptime = time.Now()
}
