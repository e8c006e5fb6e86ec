// Package monitor tracks background sync health and data directory
// usage for the health endpoint.
package monitor

import (
	"sync"
	"time"
)

// SyncMonitor tracks sync cycle health and failures.
type SyncMonitor struct {
	mu                sync.RWMutex
	staleAfter        time.Duration
	lastSuccess       time.Time
	lastAttempt       time.Time
	lastRows          int
	consecutiveErrors int
	lastError         string
}

// NewSyncMonitor returns a monitor that considers the read model stale
// when no cycle succeeded within staleAfter.
func NewSyncMonitor(staleAfter time.Duration) *SyncMonitor {
	return &SyncMonitor{staleAfter: staleAfter}
}

// RecordSuccess records a clean sync cycle and the rows it moved.
func (sm *SyncMonitor) RecordSuccess(rows int) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	now := time.Now()
	sm.lastSuccess = now
	sm.lastAttempt = now
	sm.lastRows = rows
	sm.consecutiveErrors = 0
	sm.lastError = ""
}

// RecordFailure records a failed sync cycle.
func (sm *SyncMonitor) RecordFailure(err error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.lastAttempt = time.Now()
	sm.consecutiveErrors++
	if err != nil {
		sm.lastError = err.Error()
	}
}

// IsHealthy reports whether the sync loop is working. Unhealthy means
// it never succeeded, went stale, or failed more than 3 times in a row.
func (sm *SyncMonitor) IsHealthy() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.isHealthyLocked()
}

func (sm *SyncMonitor) isHealthyLocked() bool {
	if sm.lastSuccess.IsZero() {
		return false
	}
	if time.Since(sm.lastSuccess) > sm.staleAfter {
		return false
	}
	if sm.consecutiveErrors > 3 {
		return false
	}
	return true
}

// SyncStatus is the sync section of the health response.
type SyncStatus struct {
	Healthy           bool   `json:"healthy"`
	LastSuccess       string `json:"last_success,omitempty"`
	TimeSinceSuccess  string `json:"time_since_success,omitempty"`
	LastAttempt       string `json:"last_attempt,omitempty"`
	RowsSynced        int    `json:"rows_synced,omitempty"`
	ConsecutiveErrors int    `json:"consecutive_errors,omitempty"`
	LastError         string `json:"last_error,omitempty"`
}

// Status returns the current sync status for health checks.
func (sm *SyncMonitor) Status() SyncStatus {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	status := SyncStatus{
		Healthy: sm.isHealthyLocked(),
	}

	if !sm.lastSuccess.IsZero() {
		status.LastSuccess = sm.lastSuccess.Format(time.RFC3339)
		status.TimeSinceSuccess = time.Since(sm.lastSuccess).String()
		status.RowsSynced = sm.lastRows
	}

	if !sm.lastAttempt.IsZero() {
		status.LastAttempt = sm.lastAttempt.Format(time.RFC3339)
	}

	if sm.consecutiveErrors > 0 {
		status.ConsecutiveErrors = sm.consecutiveErrors
		status.LastError = sm.lastError
	}

	return status
}
