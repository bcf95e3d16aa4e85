package hub

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/vietddude/askhub/internal/metrics"
)

const maxResponseBytes = 1 << 20

// Request describes one logical call against the hub.
type Request struct {
	Endpoint string // metrics and log label, e.g. "question"
	Method   string
	URL      string
	Header   http.Header
	Body     any // JSON-encoded when non-nil
}

// Logger receives best-effort diagnostics about failed attempts.
type Logger interface {
	PostLog(ctx context.Context, message string, extra map[string]any) bool
}

// Observer is told about the outcome of every attempt.
type Observer interface {
	RecordSuccess(latency time.Duration)
	RecordFailure(reason string)
}

// RetryPolicy bounds the transport's retry loop.
type RetryPolicy struct {
	MaxRetries int           // total attempts, at least 1
	BaseDelay  time.Duration // sleep before attempt n+1 is BaseDelay*n
}

func (p RetryPolicy) attempts() int {
	if p.MaxRetries < 1 {
		return 1
	}
	return p.MaxRetries
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(attempt)
}

// Transport performs hub requests with bounded retries on transport failures.
// HTTP error statuses are definitive and are never retried.
type Transport struct {
	httpClient *http.Client
	policy     RetryPolicy
	sink       Logger
	observer   Observer

	sleep func(ctx context.Context, d time.Duration) error
}

// NewTransport creates a Transport. sink and observer may be nil.
func NewTransport(httpClient *http.Client, policy RetryPolicy, sink Logger, observer Observer) *Transport {
	return &Transport{
		httpClient: httpClient,
		policy:     policy,
		sink:       sink,
		observer:   observer,
		sleep:      sleepContext,
	}
}

// NewHTTPClient builds the pooled HTTP client shared by a Transport and its LogSink.
func NewHTTPClient(cfg Config) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	return &http.Client{
		Timeout: cfg.ConnectTimeout + cfg.ReadTimeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   cfg.ConnectTimeout,
			ResponseHeaderTimeout: cfg.ReadTimeout,
			TLSClientConfig:       &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}, //nolint:gosec // self-hosted hubs often use self-signed certs
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// Do executes req and returns the raw response body.
// Every returned error is a *Error.
func (t *Transport) Do(ctx context.Context, req Request) ([]byte, error) {
	op := req.Method + " " + req.Endpoint

	var payload []byte
	if req.Body != nil {
		var err error
		payload, err = json.Marshal(req.Body)
		if err != nil {
			metrics.HubRequestsTotal.WithLabelValues(req.Endpoint, "failure").Inc()
			return nil, &Error{Kind: KindUnknown, Op: op, Err: fmt.Errorf("marshal request: %w", err)}
		}
	}

	maxAttempts := t.policy.attempts()
	var lastErr *Error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		body, herr := t.attempt(ctx, op, req, payload)
		if herr == nil {
			metrics.HubRequestsTotal.WithLabelValues(req.Endpoint, "success").Inc()
			return body, nil
		}
		lastErr = herr
		t.report(ctx, req, attempt, maxAttempts, herr)

		if !herr.Kind.Transient() || attempt == maxAttempts {
			break
		}

		if err := t.sleep(ctx, t.policy.delay(attempt)); err != nil {
			lastErr = &Error{Kind: ClassifyTransport(err), Op: op, Err: err}
			break
		}
	}

	if lastErr.Kind.Transient() {
		lastErr = &Error{
			Kind: lastErr.Kind,
			Op:   op,
			Err:  fmt.Errorf("request failed after %d attempts: %w", maxAttempts, lastErr.Err),
		}
	}
	metrics.HubRequestsTotal.WithLabelValues(req.Endpoint, "failure").Inc()
	return nil, lastErr
}

func (t *Transport) attempt(ctx context.Context, op string, req Request, payload []byte) ([]byte, *Error) {
	start := time.Now()
	metrics.HubAttemptsTotal.WithLabelValues(req.Endpoint).Inc()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, reader)
	if err != nil {
		return nil, t.failed(req, &Error{Kind: KindUnknown, Op: op, Err: fmt.Errorf("create request: %w", err)})
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, t.failed(req, &Error{Kind: ClassifyTransport(err), Op: op, Err: err})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		kind := ClassifyTransport(err)
		if kind == KindUnknown {
			kind = KindConnectionFailed
		}
		return nil, t.failed(req, &Error{Kind: kind, Op: op, Err: fmt.Errorf("read response: %w", err)})
	}

	latency := time.Since(start)
	metrics.HubLatency.WithLabelValues(req.Endpoint).Observe(latency.Seconds())
	slog.Debug("Hub response", "op", op, "status", resp.StatusCode, "latency", latency, "body", truncate(string(body), 500))

	if resp.StatusCode >= 400 {
		herr := &Error{Kind: ClassifyStatus(resp.StatusCode), Op: op, Status: resp.StatusCode}
		if msg := strings.TrimSpace(string(body)); msg != "" {
			herr.Err = errors.New(truncate(msg, 200))
		}
		return nil, t.failed(req, herr)
	}

	if t.observer != nil {
		t.observer.RecordSuccess(latency)
	}
	return body, nil
}

func (t *Transport) failed(req Request, herr *Error) *Error {
	metrics.HubErrorsTotal.WithLabelValues(req.Endpoint, herr.Kind.String()).Inc()
	if t.observer != nil {
		t.observer.RecordFailure(herr.Kind.String())
	}
	return herr
}

// report forwards a failure to slog and the hub log sink; sink errors are dropped.
func (t *Transport) report(ctx context.Context, req Request, attempt, maxAttempts int, herr *Error) {
	slog.Warn("Hub request failed",
		"endpoint", req.Endpoint,
		"attempt", attempt,
		"max_attempts", maxAttempts,
		"kind", herr.Kind.String(),
		"error", herr,
	)
	if t.sink == nil {
		return
	}

	extra := map[string]any{
		"endpoint": req.Endpoint,
		"attempt":  attempt,
		"kind":     herr.Kind.String(),
		"level":    "error",
	}
	if herr.Status != 0 {
		extra["status"] = herr.Status
	}
	_ = t.sink.PostLog(ctx, fmt.Sprintf("ERROR %s (attempt %d/%d): %v", req.Endpoint, attempt, maxAttempts, herr), extra)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
