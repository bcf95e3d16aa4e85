package hub

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"
)

// =============================================================================
// Fakes
// =============================================================================

// flakyRoundTripper fails the first `failures` calls with err, then answers 200.
type flakyRoundTripper struct {
	mu       sync.Mutex
	failures int
	err      error
	calls    int
}

func (f *flakyRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(`{"ok":true}`)),
		Header:     http.Header{},
		Request:    req,
	}, nil
}

type recordingSink struct {
	mu       sync.Mutex
	messages []string
}

func (s *recordingSink) PostLog(ctx context.Context, message string, extra map[string]any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, message)
	return false
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

type recordingObserver struct {
	successes int
	failures  []string
}

func (o *recordingObserver) RecordSuccess(latency time.Duration) { o.successes++ }
func (o *recordingObserver) RecordFailure(reason string)         { o.failures = append(o.failures, reason) }

func newFlakyTransport(rt http.RoundTripper, maxRetries int, sink Logger) (*Transport, *[]time.Duration) {
	tr := NewTransport(&http.Client{Transport: rt}, RetryPolicy{
		MaxRetries: maxRetries,
		BaseDelay:  100 * time.Millisecond,
	}, sink, nil)

	var delays []time.Duration
	tr.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return tr, &delays
}

func getRequest(url string) Request {
	return Request{Endpoint: "question", Method: http.MethodGet, URL: url}
}

// =============================================================================
// Tests
// =============================================================================

func TestTransport_RetriesTransportFailures(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}

	tests := []struct {
		name         string
		failures     int
		maxRetries   int
		wantCalls    int
		wantSuccess  bool
		wantSleeps   int
		wantSinkLogs int
	}{
		{"no failure", 0, 3, 1, true, 0, 0},
		{"one failure recovers", 1, 3, 2, true, 1, 1},
		{"two failures recover", 2, 3, 3, true, 2, 2},
		{"exactly max failures", 3, 3, 3, false, 2, 3},
		{"more failures than max", 10, 3, 3, false, 2, 3},
		{"single attempt", 5, 1, 1, false, 0, 1},
		{"five attempts", 10, 5, 5, false, 4, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := &flakyRoundTripper{failures: tt.failures, err: refused}
			sink := &recordingSink{}
			tr, delays := newFlakyTransport(rt, tt.maxRetries, sink)

			body, err := tr.Do(context.Background(), getRequest("http://hub.local/question"))

			if rt.calls != tt.wantCalls {
				t.Errorf("expected %d attempts, got %d", tt.wantCalls, rt.calls)
			}
			if len(*delays) != tt.wantSleeps {
				t.Errorf("expected %d sleeps, got %d", tt.wantSleeps, len(*delays))
			}
			if sink.count() != tt.wantSinkLogs {
				t.Errorf("expected %d sink entries, got %d", tt.wantSinkLogs, sink.count())
			}

			if tt.wantSuccess {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if string(body) != `{"ok":true}` {
					t.Errorf("unexpected body %q", body)
				}
				return
			}

			var herr *Error
			if !errors.As(err, &herr) {
				t.Fatalf("expected *Error, got %T (%v)", err, err)
			}
			if herr.Kind != KindConnectionFailed {
				t.Errorf("expected kind %v, got %v", KindConnectionFailed, herr.Kind)
			}
		})
	}
}

func TestTransport_LinearBackoff(t *testing.T) {
	rt := &flakyRoundTripper{failures: 100, err: &net.OpError{Op: "read", Net: "tcp", Err: timeoutError{}}}
	tr, delays := newFlakyTransport(rt, 4, nil)

	_, err := tr.Do(context.Background(), getRequest("http://hub.local/question"))
	if KindOf(err) != KindTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}
	if len(*delays) != len(want) {
		t.Fatalf("expected %d delays, got %v", len(want), *delays)
	}
	for i, d := range *delays {
		if d != want[i] {
			t.Errorf("delay %d: expected %v, got %v", i, want[i], d)
		}
		if i > 0 && d <= (*delays)[i-1] {
			t.Errorf("delays not strictly increasing: %v", *delays)
		}
	}
}

func TestTransport_StatusErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		status int
		expect ErrorKind
	}{
		{http.StatusUnauthorized, KindUnauthorized},
		{http.StatusNotFound, KindNotFound},
		{http.StatusBadRequest, KindBadRequest},
		{http.StatusTeapot, KindBadRequest},
		{http.StatusInternalServerError, KindServerError},
		{http.StatusServiceUnavailable, KindServerError},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var calls int
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				http.Error(w, "nope", tt.status)
			}))
			defer server.Close()

			sink := &recordingSink{}
			obs := &recordingObserver{}
			tr := NewTransport(server.Client(), RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond}, sink, obs)

			_, err := tr.Do(context.Background(), getRequest(server.URL))

			if calls != 1 {
				t.Errorf("expected 1 attempt, got %d", calls)
			}
			var herr *Error
			if !errors.As(err, &herr) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if herr.Kind != tt.expect {
				t.Errorf("expected kind %v, got %v", tt.expect, herr.Kind)
			}
			if herr.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, herr.Status)
			}
			if sink.count() != 1 {
				t.Errorf("expected 1 sink entry, got %d", sink.count())
			}
			if len(obs.failures) != 1 || obs.failures[0] != tt.expect.String() {
				t.Errorf("unexpected observer failures %v", obs.failures)
			}
		})
	}
}

func TestTransport_PostsJSONBody(t *testing.T) {
	var gotBody, gotType, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("{}"))
	}))
	defer server.Close()

	tr := NewTransport(server.Client(), RetryPolicy{MaxRetries: 1}, nil, nil)
	_, err := tr.Do(context.Background(), Request{
		Endpoint: "answer",
		Method:   http.MethodPost,
		URL:      server.URL,
		Header:   buildHeader("secret"),
		Body:     map[string]any{"event_id": "42"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotBody != `{"event_id":"42"}` {
		t.Errorf("unexpected body %s", gotBody)
	}
	if gotType != "application/json" {
		t.Errorf("unexpected content type %q", gotType)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("unexpected authorization %q", gotAuth)
	}
}

func TestTransport_StopsWhenContextCancelled(t *testing.T) {
	rt := &flakyRoundTripper{failures: 100, err: &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}}
	tr := NewTransport(&http.Client{Transport: rt}, RetryPolicy{MaxRetries: 5, BaseDelay: time.Hour}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	tr.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return sleepContext(ctx, d)
	}

	_, err := tr.Do(ctx, getRequest("http://hub.local/question"))
	if err == nil {
		t.Fatal("expected error")
	}
	if rt.calls != 1 {
		t.Errorf("expected 1 attempt before cancellation, got %d", rt.calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}
