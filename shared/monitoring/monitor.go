package monitoring

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// unhealthyAfter consecutive failed generations marks the service unhealthy.
const unhealthyAfter = 5

type Monitor struct {
	mu sync.Mutex

	startedAt           time.Time
	generations         int
	generationFailures  int
	consecutiveFailures int
	lastGenerationAt    time.Time

	lastRunSuccess bool
	lastRunTime    time.Time

	logger *slog.Logger
}

// Status is a point-in-time snapshot of the monitor.
type Status struct {
	Healthy             bool      `json:"healthy"`
	Summary             string    `json:"summary"`
	Uptime              string    `json:"uptime"`
	Generations         int       `json:"generations"`
	GenerationFailures  int       `json:"generationFailures"`
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	LastGenerationAt    time.Time `json:"lastGenerationAt,omitzero"`
	LastMaintenanceAt   time.Time `json:"lastMaintenanceAt,omitzero"`
	LastMaintenanceOK   bool      `json:"lastMaintenanceOk"`
}

func NewMonitor(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		startedAt: time.Now(),
		logger:    logger.With("component", "monitor"),
	}
}

// RecordGeneration counts one model-backed operation such as a summary,
// an explanation or a chat reply.
func (m *Monitor) RecordGeneration(kind string, err error, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generations++
	m.lastGenerationAt = time.Now()
	if err == nil {
		m.consecutiveFailures = 0
		m.logger.Debug("generation completed", "kind", kind, "duration", duration)
		return
	}

	m.generationFailures++
	m.consecutiveFailures++
	m.logger.Warn("generation failed",
		"kind", kind,
		"duration", duration,
		"consecutive_failures", m.consecutiveFailures,
		"error", err)
}

// RecordMaintenance stores the outcome of a scheduled maintenance run.
func (m *Monitor) RecordMaintenance(summary string, err error, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastRunTime = time.Now()
	m.lastRunSuccess = err == nil
	if err != nil {
		m.logger.Error("maintenance run failed", "duration", duration, "error", err)
		return
	}
	m.logger.Info("maintenance run completed", "summary", summary, "duration", duration)
}

func (m *Monitor) IsHealthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthyLocked()
}

func (m *Monitor) healthyLocked() bool {
	if m.consecutiveFailures >= unhealthyAfter {
		return false
	}
	if m.lastRunTime.IsZero() {
		return true // no maintenance yet
	}
	return m.lastRunSuccess
}

func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Status{
		Healthy:             m.healthyLocked(),
		Summary:             m.summaryLocked(),
		Uptime:              time.Since(m.startedAt).Round(time.Second).String(),
		Generations:         m.generations,
		GenerationFailures:  m.generationFailures,
		ConsecutiveFailures: m.consecutiveFailures,
		LastGenerationAt:    m.lastGenerationAt,
		LastMaintenanceAt:   m.lastRunTime,
		LastMaintenanceOK:   m.lastRunSuccess,
	}
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summaryLocked()
}

func (m *Monitor) summaryLocked() string {
	if m.consecutiveFailures >= unhealthyAfter {
		return fmt.Sprintf("%d consecutive generation failures", m.consecutiveFailures)
	}
	if m.lastRunTime.IsZero() {
		return "No maintenance runs yet"
	}
	if m.lastRunSuccess {
		return fmt.Sprintf("Last maintenance: %s", m.lastRunTime.Format("Jan 2 15:04"))
	}
	return fmt.Sprintf("Last maintenance failed: %s", m.lastRunTime.Format("Jan 2 15:04"))
}
