package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/askhub/internal/infra/hub"
)

var _ hub.Observer = (*Monitor)(nil)

// =============================================================================
// Monitor
// =============================================================================

func record(m *Monitor, successes, failures int) {
	for i := 0; i < successes; i++ {
		m.RecordSuccess(20 * time.Millisecond)
	}
	for i := 0; i < failures; i++ {
		m.RecordFailure("timeout")
	}
}

func TestMonitor_HubStatus(t *testing.T) {
	tests := []struct {
		name      string
		successes int
		failures  int
		status    SystemStatus
		available bool
	}{
		{"no traffic", 0, 0, StatusHealthy, true},
		{"healthy", 9, 1, StatusHealthy, true},
		{"degraded", 6, 4, StatusDegraded, true},
		{"critical", 2, 8, StatusCritical, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor()
			record(m, tt.successes, tt.failures)

			h := m.Hub()
			if h.Status != tt.status {
				t.Errorf("expected %s, got %s", tt.status, h.Status)
			}
			if h.Available != tt.available {
				t.Errorf("expected available=%v, got %v", tt.available, h.Available)
			}
		})
	}
}

func TestMonitor_TracksLatencyAndLastFailure(t *testing.T) {
	m := NewMonitor()
	m.RecordSuccess(10 * time.Millisecond)
	m.RecordSuccess(30 * time.Millisecond)
	m.RecordFailure("connection_failed")

	h := m.Hub()
	if h.AvgLatencyMS != 20 {
		t.Errorf("expected 20ms average, got %d", h.AvgLatencyMS)
	}
	if h.LastFailure != "connection_failed" {
		t.Errorf("unexpected last failure %q", h.LastFailure)
	}
	if h.LastSuccessAt == nil || h.LastFailureAt == nil {
		t.Error("expected both timestamps to be set")
	}
}

func TestMonitor_WindowForgetsOldOutcomes(t *testing.T) {
	m := NewMonitor()
	record(m, 0, 100)
	record(m, 100, 0)

	h := m.Hub()
	if h.ErrorRate != 0 || h.Requests != 100 {
		t.Errorf("expected a clean window, got rate=%v requests=%d", h.ErrorRate, h.Requests)
	}
}

func TestMonitor_DependencyChecksAreCached(t *testing.T) {
	m := NewMonitor()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	calls := 0
	m.AddCheck("redis", func(ctx context.Context) error {
		calls++
		return errors.New("connection refused")
	})

	report := m.CheckHealth(context.Background())
	if report.SystemStatus != StatusDegraded {
		t.Errorf("expected degraded, got %s", report.SystemStatus)
	}
	if report.Dependencies["redis"].Error != "connection refused" {
		t.Errorf("unexpected dependency report %+v", report.Dependencies)
	}

	m.CheckHealth(context.Background())
	if calls != 1 {
		t.Errorf("expected cached check, got %d calls", calls)
	}

	now = now.Add(11 * time.Second)
	m.CheckHealth(context.Background())
	if calls != 2 {
		t.Errorf("expected check to rerun, got %d calls", calls)
	}
}

func TestMonitor_SlowCheckDoesNotBlockObserver(t *testing.T) {
	m := NewMonitor()
	recorded := make(chan struct{})
	m.AddCheck("redis", func(ctx context.Context) error {
		go func() {
			m.RecordSuccess(5 * time.Millisecond)
			_ = m.Hub()
			close(recorded)
		}()
		select {
		case <-recorded:
			return nil
		case <-time.After(2 * time.Second):
			return errors.New("observer blocked")
		}
	})

	report := m.CheckHealth(context.Background())
	if dep := report.Dependencies["redis"]; dep.Status != StatusHealthy {
		t.Fatalf("expected observer to run during check, got %+v", dep)
	}
	if h := m.Hub(); h.Requests != 1 {
		t.Errorf("expected 1 recorded request, got %d", h.Requests)
	}
}

// =============================================================================
// Server
// =============================================================================

func TestServer_Health(t *testing.T) {
	m := NewMonitor()
	s := NewServer(m, 0)
	s.Handle("/skill", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var body map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || body["status"] != "healthy" {
		t.Errorf("unexpected health response %d %v", resp.StatusCode, body)
	}

	record(m, 0, 10)
	resp, err = http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/health/detailed")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var report HealthReport
	_ = json.NewDecoder(resp.Body).Decode(&report)
	resp.Body.Close()
	if report.Hub.Requests != 10 || report.Hub.Available {
		t.Errorf("unexpected detailed report %+v", report.Hub)
	}

	resp, err = http.Get(srv.URL + "/skill")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTeapot {
		t.Errorf("expected mounted handler, got %d", resp.StatusCode)
	}
}
