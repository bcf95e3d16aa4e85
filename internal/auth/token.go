// Package auth resolves the bearer token used to call the hub on behalf of
// a voice-platform user, caching account-linking tokens across invocations.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/askhub/internal/core/domain"
	"github.com/vietddude/askhub/internal/metrics"
)

const (
	// TokenLifetime is how long a platform access token is assumed valid.
	TokenLifetime = time.Hour
	// RefreshBuffer is the margin before expiry at which a cached token is replaced.
	RefreshBuffer = 5 * time.Minute
)

// ErrNoToken is returned when neither the cache nor the invocation holds a token.
var ErrNoToken = errors.New("no access token available")

// Token is a cached bearer token.
type Token struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store persists tokens between invocations.
type Store interface {
	Get(ctx context.Context, key string) (Token, bool, error)
	Put(ctx context.Context, key string, token Token) error
	Delete(ctx context.Context, key string) error
}

// LinkedAccountSource hands out the account-linking token for one caller.
type LinkedAccountSource struct {
	store  Store
	key    string
	access string
	now    func() time.Time
}

// NewLinkedAccountSource creates a source for caller. store may be nil, in
// which case the platform token is used as-is with no caching. Callers
// without a user ID never touch the store.
func NewLinkedAccountSource(store Store, caller domain.Caller) *LinkedAccountSource {
	if caller.UserID == "" {
		store = nil
	}
	return &LinkedAccountSource{
		store:  store,
		key:    caller.UserID,
		access: caller.AccessToken,
		now:    time.Now,
	}
}

// Token returns a cached token that is not about to expire, or caches and
// returns the platform access token of the invocation.
func (s *LinkedAccountSource) Token(ctx context.Context) (string, error) {
	now := s.now()

	if s.store != nil {
		cached, ok, err := s.store.Get(ctx, s.key)
		switch {
		case err != nil:
			metrics.TokenCacheTotal.WithLabelValues("error").Inc()
			slog.Warn("Token cache lookup failed", "error", err)
		case ok && cached.Value != "" && cached.ExpiresAt.Sub(now) > RefreshBuffer:
			metrics.TokenCacheTotal.WithLabelValues("hit").Inc()
			slog.Debug("Using cached access token")
			return cached.Value, nil
		default:
			metrics.TokenCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	if s.access == "" {
		return "", ErrNoToken
	}

	if s.store != nil {
		token := Token{Value: s.access, ExpiresAt: now.Add(TokenLifetime)}
		if err := s.store.Put(ctx, s.key, token); err != nil {
			slog.Warn("Failed to cache access token", "error", err)
		} else {
			slog.Debug("Access token cached", "expires_in", TokenLifetime)
		}
	}
	return s.access, nil
}

// Invalidate drops the cached token, typically after the hub rejected it.
func (s *LinkedAccountSource) Invalidate(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("delete cached token: %w", err)
	}
	slog.Info("Access token invalidated")
	return nil
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]Token
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]Token)}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (Token, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tokens[key]
	return t, ok, nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, token Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[key] = token
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, key)
	return nil
}
