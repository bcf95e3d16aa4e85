// Package hub implements the protocol client for the home-automation hub.
//
// A Client fetches the question the hub is waiting on, posts the user's
// answer, and forwards diagnostics to the hub's log endpoint. One Client
// serves one voice invocation: it is not safe for concurrent use and keeps
// its QuestionState only for its own lifetime.
package hub

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vietddude/askhub/internal/core/domain"
)

// TokenSource yields the bearer token for the current end user.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Invalidator is implemented by token sources that cache tokens.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Messages are the host-supplied texts the client falls back to.
// The client never picks a language itself.
type Messages struct {
	Acknowledge string
	Unavailable string
	Errors      map[ErrorKind]string
}

// DefaultMessages is used when the host supplies none.
var DefaultMessages = Messages{
	Acknowledge: "OK",
	Unavailable: "Error",
}

// Option configures a Client.
type Option func(*Client)

// WithTokenSource sets where the bearer token comes from when the
// configuration carries no static token.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithCaller attaches the identity of the invoking user.
func WithCaller(caller domain.Caller) Option {
	return func(c *Client) { c.caller = caller }
}

// WithMessages sets the fallback texts.
func WithMessages(m Messages) Option {
	return func(c *Client) {
		if m.Acknowledge != "" {
			c.messages.Acknowledge = m.Acknowledge
		}
		if m.Unavailable != "" {
			c.messages.Unavailable = m.Unavailable
		}
		if m.Errors != nil {
			c.messages.Errors = m.Errors
		}
	}
}

// WithObserver reports every transport attempt to o.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithHTTPClient replaces the pooled HTTP client built from Config.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// Client talks to the hub on behalf of one invocation.
type Client struct {
	cfg        Config
	httpClient *http.Client
	transport  *Transport
	sink       *LogSink
	header     http.Header

	caller   domain.Caller
	tokens   TokenSource
	observer Observer
	messages Messages

	questionURL string
	answerURL   string

	state   domain.QuestionState
	lastErr error
}

// NewClient creates a client with an empty state. The bearer token is
// resolved once here and lives as long as the client.
func NewClient(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:      cfg,
		messages: DefaultMessages,
	}
	for _, opt := range opts {
		opt(c)
	}

	var err error
	if c.questionURL, err = cfg.endpoint(cfg.QuestionPath); err != nil {
		return nil, err
	}
	if c.answerURL, err = cfg.endpoint(cfg.AnswerPath); err != nil {
		return nil, err
	}
	logURL, err := cfg.endpoint(cfg.LogPath)
	if err != nil {
		return nil, err
	}

	if c.httpClient == nil {
		c.httpClient = NewHTTPClient(cfg)
	}
	c.header = buildHeader(c.resolveToken(ctx))
	c.sink = NewLogSink(c.httpClient, logURL, c.header, cfg.LogPostingEnabled(), cfg.CodeVersion)
	c.transport = NewTransport(c.httpClient, RetryPolicy{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  cfg.RetryDelay,
	}, c.sink, c.observer)

	return c, nil
}

func (c *Client) resolveToken(ctx context.Context) string {
	if c.cfg.Token != "" {
		return c.cfg.Token
	}
	if c.tokens == nil {
		slog.Debug("No token source, calling hub without bearer token")
		return ""
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		slog.Error("Failed to fetch token", "error", err)
		return ""
	}
	return token
}

func buildHeader(token string) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

// Fetch retrieves the current question. On failure the state becomes a
// *domain.FailedQuestion and Err reports the classified cause.
func (c *Client) Fetch(ctx context.Context) bool {
	body, err := c.transport.Do(ctx, Request{
		Endpoint: "question",
		Method:   http.MethodGet,
		URL:      c.questionURL,
		Header:   c.header,
	})
	if err != nil {
		c.fail(ctx, err)
		return false
	}

	q, err := parseQuestion(body)
	if err != nil {
		herr := &Error{Kind: KindParseFailure, Op: "GET question", Err: err}
		slog.Error("Failed to parse question response", "error", err)
		c.sink.PostLog(ctx, "ERROR: "+herr.Error(), map[string]any{"kind": herr.Kind.String(), "level": "error"})
		c.fail(ctx, herr)
		return false
	}

	c.state = q
	c.lastErr = nil
	slog.Info("Question retrieved", "event_id", q.EventID, "suppress_confirmation", q.SuppressConfirmation)
	return true
}

// Post answers the active question and returns the text to speak.
// An empty string means the hub asked for a silent confirmation.
// Without an active question nothing is sent and a fallback text is returned.
func (c *Client) Post(ctx context.Context, value string, typ domain.ResponseType, extra map[string]any) string {
	var q *domain.ActiveQuestion
	switch s := c.state.(type) {
	case *domain.ActiveQuestion:
		q = s
	case *domain.FailedQuestion:
		c.lastErr = &Error{Kind: KindContractViolation, Op: "POST answer", Err: ErrNoActiveQuestion}
		slog.Error("Cannot post answer: last hub call failed", "message", s.Message)
		if s.Message != "" {
			return s.Message
		}
		return c.messages.Unavailable
	default:
		c.lastErr = &Error{Kind: KindContractViolation, Op: "POST answer", Err: ErrNoActiveQuestion}
		slog.Error("Cannot post answer: no question fetched")
		return c.messages.Unavailable
	}

	if !q.HasEvent() {
		c.lastErr = &Error{Kind: KindContractViolation, Op: "POST answer", Err: ErrNoActiveQuestion}
		slog.Warn("Cannot post answer: question has no event id")
		return c.messages.Unavailable
	}

	_, err := c.transport.Do(ctx, Request{
		Endpoint: "answer",
		Method:   http.MethodPost,
		URL:      c.answerURL,
		Header:   c.header,
		Body:     c.answerBody(q, value, typ, extra),
	})
	if err != nil {
		c.lastErr = err
		c.invalidateOnUnauthorized(ctx, err)
		if q.Prompt == "" {
			return c.messageFor(err)
		}
		return q.Prompt
	}

	c.Clear()
	c.lastErr = nil
	slog.Info("Answer posted", "event_id", q.EventID, "response_type", typ)
	if q.SuppressConfirmation {
		return ""
	}
	return c.messages.Acknowledge
}

func (c *Client) answerBody(q *domain.ActiveQuestion, value string, typ domain.ResponseType, extra map[string]any) map[string]any {
	body := make(map[string]any, len(extra)+7)
	body["deviceSerialNumber"] = q.DeviceSerial
	body["textBrut"] = q.RawText
	body["code_version"] = c.cfg.CodeVersion
	for k, v := range extra {
		body[k] = v
	}
	body["event_id"] = q.EventID
	body["event_response"] = value
	body["event_response_type"] = string(typ)
	if c.caller.PersonID != "" {
		body["event_person_id"] = c.caller.PersonID
	}
	return body
}

// PostLog forwards a caller-level diagnostic to the hub.
func (c *Client) PostLog(ctx context.Context, message string, extra map[string]any) bool {
	return c.sink.PostLog(ctx, message, extra)
}

// State returns the current question state, nil when empty.
func (c *Client) State() domain.QuestionState {
	return c.state
}

// Active returns the active question, if any.
func (c *Client) Active() (*domain.ActiveQuestion, bool) {
	q, ok := c.state.(*domain.ActiveQuestion)
	return q, ok
}

// Err returns the classified error of the last failed call, nil after a success.
func (c *Client) Err() error {
	return c.lastErr
}

// Clear drops the current state.
func (c *Client) Clear() {
	slog.Debug("Clearing hub state")
	c.state = nil
}

// Close releases the client's idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) fail(ctx context.Context, err error) {
	c.lastErr = err
	c.state = &domain.FailedQuestion{Message: c.messageFor(err)}
	c.invalidateOnUnauthorized(ctx, err)
}

func (c *Client) messageFor(err error) string {
	if msg, ok := c.messages.Errors[KindOf(err)]; ok && msg != "" {
		return msg
	}
	return err.Error()
}

func (c *Client) invalidateOnUnauthorized(ctx context.Context, err error) {
	if KindOf(err) != KindUnauthorized || c.cfg.Token != "" {
		return
	}
	inv, ok := c.tokens.(Invalidator)
	if !ok {
		return
	}
	if ierr := inv.Invalidate(ctx); ierr != nil && !errors.Is(ierr, context.Canceled) {
		slog.Warn("Failed to invalidate token", "error", ierr)
	}
}
