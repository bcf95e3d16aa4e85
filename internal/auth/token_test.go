package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/askhub/internal/core/domain"
)

type brokenStore struct{}

func (brokenStore) Get(ctx context.Context, key string) (Token, bool, error) {
	return Token{}, false, errors.New("down")
}
func (brokenStore) Put(ctx context.Context, key string, token Token) error { return errors.New("down") }
func (brokenStore) Delete(ctx context.Context, key string) error         { return errors.New("down") }

func newSource(store Store, access string, now time.Time) *LinkedAccountSource {
	s := NewLinkedAccountSource(store, domain.Caller{UserID: "user-1", AccessToken: access})
	s.now = func() time.Time { return now }
	return s
}

func TestLinkedAccountSource_CachesPlatformToken(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()

	tok, err := newSource(store, "fresh", now).Token(ctx)
	if err != nil || tok != "fresh" {
		t.Fatalf("expected fresh token, got %q (%v)", tok, err)
	}

	cached, ok, _ := store.Get(ctx, "user-1")
	if !ok {
		t.Fatal("expected token to be cached")
	}
	if !cached.ExpiresAt.Equal(now.Add(TokenLifetime)) {
		t.Errorf("unexpected expiry %v", cached.ExpiresAt)
	}

	// A later invocation with a different platform token reuses the cache.
	tok, _ = newSource(store, "other", now.Add(30*time.Minute)).Token(ctx)
	if tok != "fresh" {
		t.Errorf("expected cached token, got %q", tok)
	}
}

func TestLinkedAccountSource_RefreshesNearExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	_ = store.Put(ctx, "user-1", Token{Value: "stale", ExpiresAt: now.Add(RefreshBuffer - time.Second)})

	tok, err := newSource(store, "fresh", now).Token(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok != "fresh" {
		t.Errorf("expected refreshed token, got %q", tok)
	}
}

func TestLinkedAccountSource_NoToken(t *testing.T) {
	_, err := newSource(NewMemoryStore(), "", time.Now()).Token(context.Background())
	if !errors.Is(err, ErrNoToken) {
		t.Errorf("expected ErrNoToken, got %v", err)
	}
}

func TestLinkedAccountSource_StoreFailuresAreTolerated(t *testing.T) {
	s := newSource(brokenStore{}, "fresh", time.Now())

	tok, err := s.Token(context.Background())
	if err != nil || tok != "fresh" {
		t.Errorf("expected platform token despite broken store, got %q (%v)", tok, err)
	}
	if err := s.Invalidate(context.Background()); err == nil {
		t.Error("expected invalidate to report the store error")
	}
}

func TestLinkedAccountSource_Invalidate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := newSource(store, "fresh", time.Now())

	if _, err := s.Token(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Invalidate(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "user-1"); ok {
		t.Error("expected cached token to be removed")
	}
}

func TestLinkedAccountSource_WithoutStore(t *testing.T) {
	s := newSource(nil, "fresh", time.Now())
	if tok, err := s.Token(context.Background()); err != nil || tok != "fresh" {
		t.Errorf("expected platform token, got %q (%v)", tok, err)
	}
	if err := s.Invalidate(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLinkedAccountSource_AnonymousCallersAreNotCached(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	tok, err := NewLinkedAccountSource(store, domain.Caller{AccessToken: "first-caller"}).Token(ctx)
	if err != nil || tok != "first-caller" {
		t.Fatalf("expected platform token, got %q (%v)", tok, err)
	}
	if _, ok, _ := store.Get(ctx, ""); ok {
		t.Error("expected anonymous token to stay out of the store")
	}

	_, err = NewLinkedAccountSource(store, domain.Caller{}).Token(ctx)
	if !errors.Is(err, ErrNoToken) {
		t.Errorf("expected ErrNoToken for a token-less anonymous caller, got %v", err)
	}
}
