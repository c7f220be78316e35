package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const defaultLockTTL = 45 * time.Second

// Locker hands out per-session submission locks.
type Locker interface {
	Acquire(ctx context.Context, sessionID string) (release func(context.Context) error, ok bool, err error)
}

// lockStore defines the operations used by RedisLocker.
type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	DelIfEquals(ctx context.Context, key, expected string) (bool, error)
	CheckoutLockKey(sessionID string) string
}

// RedisLocker implements Locker using Redis SETNX + TTL.
type RedisLocker struct {
	client lockStore
	ttl    time.Duration
}

// NewRedisLocker constructs a Redis-backed submission lock.
func NewRedisLocker(client lockStore, ttl time.Duration) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("redis client required for checkout lock")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{client: client, ttl: ttl}, nil
}

// Acquire tries to own the session's lock for the configured TTL.
func (l *RedisLocker) Acquire(ctx context.Context, sessionID string) (func(context.Context) error, bool, error) {
	key := l.client.CheckoutLockKey(sessionID)
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, owner, l.ttl)
	if err != nil {
		return nil, false, fmt.Errorf("setnx: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	return func(ctx context.Context) error { return l.release(ctx, key, owner) }, true, nil
}

// release frees the lock only if the owner value still matches, so an expired
// lock taken over by another submit is left alone.
func (l *RedisLocker) release(ctx context.Context, key, owner string) error {
	if _, err := l.client.DelIfEquals(ctx, key, owner); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
