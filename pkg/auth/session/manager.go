package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redisclient "github.com/jkovarik/dispecink-backend/pkg/redis"
	redislib "github.com/redis/go-redis/v9"
)

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(jti string) string
}

// Manager registers issued access tokens by jti so logout can revoke them
// before expiry.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// Checker exposes the read-only surface needed by middleware.
type Checker interface {
	Has(ctx context.Context, jti string) (bool, error)
}

// NewManager constructs a session manager backed by redis.
func NewManager(client *redisclient.Client, ttl time.Duration) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}

	return &Manager{store: client, keyer: client, ttl: ttl}, nil
}

// Register records the jti of a freshly minted access token.
func (m *Manager) Register(ctx context.Context, jti string) error {
	if strings.TrimSpace(jti) == "" {
		return fmt.Errorf("jti is required")
	}
	return m.store.Set(ctx, m.keyer.SessionKey(jti), "1", m.ttl)
}

// Has reports whether the session is still active.
func (m *Manager) Has(ctx context.Context, jti string) (bool, error) {
	if strings.TrimSpace(jti) == "" {
		return false, nil
	}
	if _, err := m.store.Get(ctx, m.keyer.SessionKey(jti)); err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Revoke removes the session so the token stops validating immediately.
func (m *Manager) Revoke(ctx context.Context, jti string) error {
	if strings.TrimSpace(jti) == "" {
		return nil
	}
	return m.store.Del(ctx, m.keyer.SessionKey(jti))
}
