package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vietddude/askhub/internal/auth"
)

var _ auth.Store = (*TokenStore)(nil)

// TokenStore implements auth.Store on Redis. Entries expire with the token.
type TokenStore struct {
	client *Client
}

// NewTokenStore creates a Redis-backed token store.
func NewTokenStore(client *Client) *TokenStore {
	return &TokenStore{client: client}
}

func (s *TokenStore) tokenKey(userID string) string {
	return s.client.key("token", userID)
}

// Get returns the cached token for userID.
func (s *TokenStore) Get(ctx context.Context, userID string) (auth.Token, bool, error) {
	data, err := s.client.rdb.Get(ctx, s.tokenKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return auth.Token{}, false, nil
	}
	if err != nil {
		return auth.Token{}, false, fmt.Errorf("get token: %w", err)
	}

	var t auth.Token
	if err := json.Unmarshal(data, &t); err != nil {
		return auth.Token{}, false, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return t, true, nil
}

// Put caches token until its expiry.
func (s *TokenStore) Put(ctx context.Context, userID string, token auth.Token) error {
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return s.Delete(ctx, userID)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := s.client.rdb.Set(ctx, s.tokenKey(userID), data, ttl).Err(); err != nil {
		return fmt.Errorf("set token: %w", err)
	}
	return nil
}

// Delete removes the cached token.
func (s *TokenStore) Delete(ctx context.Context, userID string) error {
	return s.client.rdb.Del(ctx, s.tokenKey(userID)).Err()
}
