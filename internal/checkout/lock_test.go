package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryKV struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryKV() *memoryKV {
	return &memoryKV{values: map[string]string{}}
}

func (m *memoryKV) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryKV) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value.(string)
	return nil
}

func (m *memoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryKV) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *memoryKV) DelIfEquals(_ context.Context, key, expected string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.values[key]; !ok || v != expected {
		return false, nil
	}
	delete(m.values, key)
	return true, nil
}

func (m *memoryKV) CheckoutLockKey(sessionID string) string { return "test:lock:" + sessionID }
func (m *memoryKV) CartIDKey(sessionID string) string       { return "test:cartid:" + sessionID }

func TestRedisLockerIsExclusivePerSession(t *testing.T) {
	kv := newMemoryKV()
	locker, err := NewRedisLocker(kv, 0)
	require.NoError(t, err)
	ctx := context.Background()

	release, ok, err := locker.Acquire(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.Acquire(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = locker.Acquire(ctx, "s2")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, release(ctx))
	_, ok, err = locker.Acquire(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockerReleaseKeepsForeignOwner(t *testing.T) {
	kv := newMemoryKV()
	locker, err := NewRedisLocker(kv, time.Second)
	require.NoError(t, err)
	ctx := context.Background()

	release, ok, err := locker.Acquire(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)

	kv.values[kv.CheckoutLockKey("s1")] = "someone-else"
	require.NoError(t, release(ctx))
	assert.Equal(t, "someone-else", kv.values[kv.CheckoutLockKey("s1")])
}

func TestRedisCartIDStore(t *testing.T) {
	store := NewRedisCartIDStore(newMemoryKV(), time.Hour)
	ctx := context.Background()

	id, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, store.Save(ctx, "s1", "42"))
	id, err = store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "42", id)
}
