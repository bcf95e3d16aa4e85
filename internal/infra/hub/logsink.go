package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/vietddude/askhub/internal/metrics"
)

// LogSink forwards diagnostics to the hub's log endpoint.
// It makes a single attempt per entry so that a failing hub cannot
// produce a feedback loop of failure logs.
type LogSink struct {
	httpClient  *http.Client
	url         string
	header      http.Header
	enabled     bool
	codeVersion float64
	now         func() time.Time
}

// NewLogSink creates a LogSink posting to url.
func NewLogSink(httpClient *http.Client, url string, header http.Header, enabled bool, codeVersion float64) *LogSink {
	return &LogSink{
		httpClient:  httpClient,
		url:         url,
		header:      header,
		enabled:     enabled,
		codeVersion: codeVersion,
		now:         time.Now,
	}
}

// Enabled reports whether entries are actually sent.
func (s *LogSink) Enabled() bool {
	return s != nil && s.enabled
}

// PostLog sends message and extra to the hub. It never returns an error;
// false means the entry was not accepted, for whatever reason.
func (s *LogSink) PostLog(ctx context.Context, message string, extra map[string]any) bool {
	if !s.Enabled() {
		slog.Debug("Log posting disabled")
		return false
	}

	body := make(map[string]any, len(extra)+3)
	for k, v := range extra {
		body[k] = v
	}
	body["log"] = message
	body["code_version"] = s.codeVersion
	if _, ok := body["timestamp"]; !ok {
		body["timestamp"] = s.now().UTC().Format(time.RFC3339)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return s.result(false, "marshal log entry", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return s.result(false, "create log request", err)
	}
	for k, vs := range s.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return s.result(false, "post log", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return s.result(false, "post log", &Error{Kind: ClassifyStatus(resp.StatusCode), Op: "POST log", Status: resp.StatusCode})
	}

	slog.Debug("Log posted", "message", truncate(message, 100))
	return s.result(true, "", nil)
}

func (s *LogSink) result(ok bool, what string, err error) bool {
	if ok {
		metrics.LogPostsTotal.WithLabelValues("ok").Inc()
		return true
	}
	metrics.LogPostsTotal.WithLabelValues("failed").Inc()
	slog.Warn("Failed to post log", "step", what, "error", err)
	return false
}
