package monitoring

import (
	"sync"
	"time"

	"menuops/internal/dashboard"
)

// ProjectFigures is the latest dashboard state of one project
type ProjectFigures struct {
	MenuName     string    `json:"menuName,omitempty"`
	Revision     uint64    `json:"revision"`
	Completeness float64   `json:"completeness"`
	Items        int       `json:"items"`
	Linked       int       `json:"linked"`
	Warnings     int       `json:"warnings"`
	Error        string    `json:"error,omitempty"`
	RefreshedAt  time.Time `json:"refreshedAt"`
}

// Monitor keeps per-project dashboard figures and the last report
// generation times for the JSON metrics endpoint
type Monitor struct {
	mu        sync.RWMutex
	startTime time.Time
	projects  map[string]ProjectFigures
	timings   map[string]time.Duration
}

// NewMonitor creates a new monitoring instance
func NewMonitor() *Monitor {
	return &Monitor{
		startTime: time.Now(),
		projects:  make(map[string]ProjectFigures),
		timings:   make(map[string]time.Duration),
	}
}

// ObserveSnapshot stores the figures of a dashboard refresh. It has the
// listener signature of dashboard.Reconciler.Subscribe.
func (m *Monitor) ObserveSnapshot(snap dashboard.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[snap.ProjectID] = ProjectFigures{
		MenuName:     snap.MenuName,
		Revision:     snap.Revision,
		Completeness: snap.Completeness,
		Items:        snap.ItemCount,
		Linked:       snap.LinkedCount,
		Warnings:     len(snap.Warnings),
		Error:        snap.Error,
		RefreshedAt:  snap.GeneratedAt,
	}
}

// RecordTiming keeps how long the last generation of a report took
func (m *Monitor) RecordTiming(report string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timings[report] = d
}

// GetMetrics returns a copy of everything recorded plus the uptime
func (m *Monitor) GetMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	projects := make(map[string]ProjectFigures, len(m.projects))
	for id, figures := range m.projects {
		projects[id] = figures
	}
	timings := make(map[string]int64, len(m.timings))
	for report, d := range m.timings {
		timings[report] = d.Milliseconds()
	}
	return map[string]interface{}{
		"uptime_seconds":     time.Since(m.startTime).Seconds(),
		"projects":           projects,
		"last_generation_ms": timings,
	}
}
