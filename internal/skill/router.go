package skill

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/vietddude/askhub/internal/core/domain"
	"github.com/vietddude/askhub/internal/locale"
	"github.com/vietddude/askhub/internal/metrics"
)

const maxRequestBody = 1 << 20

// Handler answers one invocation.
type Handler func(ctx context.Context, inv *Invocation) Response

// Invocation is the per-request context handed to handlers.
type Invocation struct {
	ID      string
	Request Request
	Strings locale.Strings
	Caller  domain.Caller
	Logger  *slog.Logger

	factory ClientFactory
	client  HubClient
	err     error
}

// Hub returns the invocation's hub client, creating it on first use.
func (inv *Invocation) Hub(ctx context.Context) (HubClient, error) {
	if inv.client == nil && inv.err == nil {
		inv.client, inv.err = inv.factory(ctx, inv)
		if inv.err != nil {
			inv.client = nil
			inv.Logger.Error("Failed to create hub client", "error", inv.err)
		}
	}
	return inv.client, inv.err
}

// Text returns the localized string for key.
func (inv *Invocation) Text(key locale.Key, fallback string) string {
	return inv.Strings.Get(key, fallback)
}

// Router dispatches invocations to handlers by request type and intent name.
type Router struct {
	catalog *locale.Catalog
	factory ClientFactory
	intents map[string]Handler

	launch   Handler
	ended    Handler
	fallback Handler
}

// NewRouter creates a router with every built-in intent registered.
func NewRouter(catalog *locale.Catalog, factory ClientFactory) *Router {
	r := &Router{
		catalog:  catalog,
		factory:  factory,
		intents:  make(map[string]Handler),
		launch:   handleLaunch,
		ended:    handleSessionEnded,
		fallback: handleFallback,
	}
	r.registerDefaults()
	return r
}

// Register binds an intent name to h, replacing any previous handler.
func (r *Router) Register(intent string, h Handler) {
	r.intents[intent] = h
}

// Handle runs one invocation to completion. The hub client created for it,
// if any, is closed before returning.
func (r *Router) Handle(ctx context.Context, req Request) (resp Response) {
	id := uuid.NewString()
	name := intentName(req)
	inv := &Invocation{
		ID:      id,
		Request: req,
		Strings: r.catalog.For(req.Locale),
		Caller: domain.Caller{
			PersonID:    req.PersonID,
			UserID:      req.UserID,
			SessionID:   req.SessionID,
			AccessToken: req.AccessToken,
		},
		Logger:  slog.With("invocation_id", id, "intent", name),
		factory: r.factory,
	}

	inv.Logger.Info("Handling invocation", "type", req.Type, "locale", req.Locale)

	defer func() {
		if rec := recover(); rec != nil {
			inv.Logger.Error("Handler panicked", "panic", rec)
			resp = speak(inv.Text(locale.ErrorGeneral, "An error occurred"))
		}
		r.finish(ctx, inv, name)
	}()

	return r.handlerFor(req)(ctx, inv)
}

func (r *Router) handlerFor(req Request) Handler {
	switch req.Type {
	case LaunchRequest:
		return r.launch
	case SessionEndedRequest:
		return r.ended
	}
	if h, ok := r.intents[req.Intent.Name]; ok {
		return h
	}
	return r.fallback
}

// finish records the outcome and sends an intent summary to the hub log.
func (r *Router) finish(ctx context.Context, inv *Invocation, name string) {
	outcome := "success"
	success := true
	if inv.err != nil || (inv.client != nil && inv.client.Err() != nil) {
		outcome = "failed"
		success = false
	}
	label := name
	if _, ok := r.intents[name]; !ok && inv.Request.Type == IntentRequest {
		label = "unknown"
	}
	metrics.SkillInvocationsTotal.WithLabelValues(label, outcome).Inc()

	if inv.client == nil || inv.err != nil {
		return
	}
	defer inv.client.Close()

	status := "Success"
	level := "info"
	if !success {
		status = "Failed"
		level = "warning"
	}
	inv.client.PostLog(ctx, fmt.Sprintf("Intent: %s - %s", name, status), map[string]any{
		"level":         level,
		"intent":        name,
		"success":       success,
		"invocation_id": inv.ID,
		"session_id":    inv.Caller.SessionID,
		"user_id":       inv.Caller.UserID,
	})
}

func intentName(req Request) string {
	if req.Type == IntentRequest && req.Intent.Name != "" {
		return req.Intent.Name
	}
	if req.Type == "" {
		return "Unknown"
	}
	return req.Type
}

// ServeHTTP accepts a JSON Request and writes a JSON Response.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var in Request
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxRequestBody)).Decode(&in); err != nil {
		slog.Warn("Rejected skill request", "error", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	out := r.Handle(req.Context(), in)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		slog.Error("Failed to write skill response", "error", err)
	}
}
