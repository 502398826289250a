package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *RedisBackend) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	backend := NewRedisBackendFromClient(client, "test:", 0)

	t.Cleanup(func() { _ = backend.Close() })
	return mr, backend
}

func TestRedisBackend_RoundTrip(t *testing.T) {
	_, b := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "session_id", []byte(`"abc"`)))

	got, err := b.Get(ctx, "session_id")
	require.NoError(t, err)
	assert.Equal(t, `"abc"`, string(got))
}

func TestRedisBackend_MissingKey(t *testing.T) {
	_, b := setupMiniredis(t)

	_, err := b.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRedisBackend_KeysArePrefixed(t *testing.T) {
	mr, b := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "user_id", []byte(`"u1"`)))

	got, err := mr.Get("test:user_id")
	require.NoError(t, err)
	assert.Equal(t, `"u1"`, got)
}

func TestRedisBackend_ClearLeavesForeignKeys(t *testing.T) {
	mr, b := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "a", []byte("1")))
	require.NoError(t, mr.Set("host:app:key", "keep"))

	require.NoError(t, b.Clear(ctx))

	_, err := b.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	kept, err := mr.Get("host:app:key")
	require.NoError(t, err)
	assert.Equal(t, "keep", kept)
}

func TestRedisBackend_Remove(t *testing.T) {
	_, b := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "k", []byte("v")))
	require.NoError(t, b.Remove(ctx, "k"))

	_, err := b.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestNewRedisBackend_RequiresAddr(t *testing.T) {
	_, err := NewRedisBackend(RedisConfig{})
	assert.Error(t, err)
}
