// Package health provides hub availability monitoring and status reporting.
package health

import "time"

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// HubHealth summarizes recent calls to the home-automation hub.
type HubHealth struct {
	Status        SystemStatus `json:"status"`
	Available     bool         `json:"available"`
	Requests      int          `json:"requests"`
	ErrorRate     float64      `json:"error_rate"`
	AvgLatencyMS  int64        `json:"avg_latency_ms"`
	LastSuccessAt *time.Time   `json:"last_success_at,omitempty"`
	LastFailureAt *time.Time   `json:"last_failure_at,omitempty"`
	LastFailure   string       `json:"last_failure,omitempty"`
}

// DependencyHealth is the result of one dependency check.
type DependencyHealth struct {
	Status SystemStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus SystemStatus                `json:"system_status"`
	Hub          HubHealth                   `json:"hub"`
	Dependencies map[string]DependencyHealth `json:"dependencies,omitempty"`
}
