package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// CheckFunc probes one dependency, such as the token cache.
type CheckFunc func(ctx context.Context) error

type outcome struct {
	ok      bool
	latency time.Duration
}

// Monitor tracks hub call outcomes over a sliding window and runs
// dependency checks. It satisfies hub.Observer.
type Monitor struct {
	mu sync.RWMutex

	// Sliding window of recent outcomes
	recent    []outcome
	maxWindow int

	lastSuccessAt time.Time
	lastFailureAt time.Time
	lastFailure   string

	// Thresholds
	degradedThreshold float64
	criticalThreshold float64

	checks      map[string]CheckFunc
	checkTTL    time.Duration
	lastCheck   time.Time
	lastResults map[string]DependencyHealth

	now func() time.Time
}

// NewMonitor creates a monitor with default settings.
func NewMonitor() *Monitor {
	return &Monitor{
		recent:            make([]outcome, 0, 100),
		maxWindow:         100,
		degradedThreshold: 0.3, // 30% error rate
		criticalThreshold: 0.5,
		checks:            make(map[string]CheckFunc),
		checkTTL:          10 * time.Second,
		now:               time.Now,
	}
}

// AddCheck registers a dependency check reported under name.
func (m *Monitor) AddCheck(name string, fn CheckFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[name] = fn
	m.lastResults = nil
}

// RecordSuccess records a hub call that got a response.
func (m *Monitor) RecordSuccess(latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.push(outcome{ok: true, latency: latency})
	m.lastSuccessAt = m.now()
}

// RecordFailure records a failed hub call with its classified reason.
func (m *Monitor) RecordFailure(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.push(outcome{ok: false})
	m.lastFailureAt = m.now()
	m.lastFailure = reason
}

func (m *Monitor) push(o outcome) {
	m.recent = append(m.recent, o)
	if len(m.recent) > m.maxWindow {
		m.recent = m.recent[1:]
	}
}

// Hub returns the current hub health.
func (m *Monitor) Hub() HubHealth {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h := HubHealth{
		Status:      StatusHealthy,
		Available:   true,
		Requests:    len(m.recent),
		LastFailure: m.lastFailure,
	}
	if !m.lastSuccessAt.IsZero() {
		t := m.lastSuccessAt
		h.LastSuccessAt = &t
	}
	if !m.lastFailureAt.IsZero() {
		t := m.lastFailureAt
		h.LastFailureAt = &t
	}
	if len(m.recent) == 0 {
		return h
	}

	var failures, successes int
	var total time.Duration
	for _, o := range m.recent {
		if o.ok {
			successes++
			total += o.latency
		} else {
			failures++
		}
	}
	h.ErrorRate = float64(failures) / float64(len(m.recent))
	if successes > 0 {
		h.AvgLatencyMS = (total / time.Duration(successes)).Milliseconds()
	}

	switch {
	case h.ErrorRate > m.criticalThreshold:
		h.Status = StatusCritical
		h.Available = false
	case h.ErrorRate > m.degradedThreshold:
		h.Status = StatusDegraded
	}
	return h
}

// CheckHealth builds the full report. Dependency checks run at most once
// per checkTTL.
func (m *Monitor) CheckHealth(ctx context.Context) HealthReport {
	report := HealthReport{
		Hub:          m.Hub(),
		Dependencies: m.dependencies(ctx),
	}

	report.SystemStatus = report.Hub.Status
	for _, dep := range report.Dependencies {
		report.SystemStatus = worst(report.SystemStatus, dep.Status)
	}
	return report
}

// dependencies runs the registered checks without holding m.mu, so a slow
// check never blocks the hub observer.
func (m *Monitor) dependencies(ctx context.Context) map[string]DependencyHealth {
	m.mu.Lock()
	if len(m.checks) == 0 {
		m.mu.Unlock()
		return nil
	}
	if m.lastResults != nil && m.now().Sub(m.lastCheck) < m.checkTTL {
		cached := m.lastResults
		m.mu.Unlock()
		return cached
	}
	checks := make(map[string]CheckFunc, len(m.checks))
	for name, check := range m.checks {
		checks[name] = check
	}
	m.mu.Unlock()

	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]DependencyHealth, len(names))
	for _, name := range names {
		if err := checks[name](ctx); err != nil {
			results[name] = DependencyHealth{Status: StatusDegraded, Error: err.Error()}
			continue
		}
		results[name] = DependencyHealth{Status: StatusHealthy}
	}

	m.mu.Lock()
	m.lastCheck = m.now()
	m.lastResults = results
	m.mu.Unlock()
	return results
}

func worst(a, b SystemStatus) SystemStatus {
	rank := map[SystemStatus]int{StatusHealthy: 0, StatusDegraded: 1, StatusCritical: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
