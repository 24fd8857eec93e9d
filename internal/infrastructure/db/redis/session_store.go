package redis

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gridpoint/auth-api/internal/core/domain"
)

// Key format: session:<token> → user id. Expiry is delegated to Redis TTLs,
// so no sweeping is needed; Redis executes commands for a key serially,
// which gives the per-token create/resolve/destroy consistency the session
// contract requires.
const sessionKeyPrefix = "session:"

const (
	defaultSessionTTL  = 24 * time.Hour
	defaultRememberTTL = 30 * 24 * time.Hour

	tokenBytes = 32
)

// SessionStore implements ports.SessionStore on Redis.
type SessionStore struct {
	client      *redis.Client
	sessionTTL  time.Duration
	rememberTTL time.Duration
}

// NewSessionStore wraps the given Redis client. Non-positive TTLs fall back
// to the defaults (24h plain, 30d remembered).
func NewSessionStore(client *redis.Client, sessionTTL, rememberTTL time.Duration) *SessionStore {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	if rememberTTL <= 0 {
		rememberTTL = defaultRememberTTL
	}
	return &SessionStore{client: client, sessionTTL: sessionTTL, rememberTTL: rememberTTL}
}

// Create issues a fresh token bound to userID.
func (s *SessionStore) Create(ctx context.Context, userID string, remember bool) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}

	ttl := s.sessionTTL
	if remember {
		ttl = s.rememberTTL
	}

	if err := s.client.Set(ctx, sessionKey(token), userID, ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return token, nil
}

// Resolve returns the user id bound to token, or domain.ErrSessionInvalid
// when the token is unknown or expired.
func (s *SessionStore) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", domain.ErrSessionInvalid
	}

	userID, err := s.client.Get(ctx, sessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrSessionInvalid
	}
	if err != nil {
		return "", fmt.Errorf("resolve session: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return userID, nil
}

// Destroy removes the token binding. Deleting an absent key is a no-op, so
// destroying an already-invalid token succeeds.
func (s *SessionStore) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("destroy session: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

// newToken returns 256 bits from crypto/rand, base64url-encoded.
func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
