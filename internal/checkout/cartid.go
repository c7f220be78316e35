package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CartIDStore remembers the backend cart id issued to a session.
type CartIDStore interface {
	Load(ctx context.Context, sessionID string) (string, error)
	Save(ctx context.Context, sessionID, cartID string) error
}

type cartIDKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CartIDKey(sessionID string) string
}

// RedisCartIDStore keeps cart ids next to the session's cart.
type RedisCartIDStore struct {
	client cartIDKV
	ttl    time.Duration
}

func NewRedisCartIDStore(client cartIDKV, ttl time.Duration) *RedisCartIDStore {
	return &RedisCartIDStore{client: client, ttl: ttl}
}

// Load returns "" when the session has no cart id yet.
func (s *RedisCartIDStore) Load(ctx context.Context, sessionID string) (string, error) {
	value, err := s.client.Get(ctx, s.client.CartIDKey(sessionID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("load cart id: %w", err)
	}
	return value, nil
}

func (s *RedisCartIDStore) Save(ctx context.Context, sessionID, cartID string) error {
	if err := s.client.Set(ctx, s.client.CartIDKey(sessionID), cartID, s.ttl); err != nil {
		return fmt.Errorf("save cart id: %w", err)
	}
	return nil
}
