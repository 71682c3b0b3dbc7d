package client

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisCacheStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisCacheStore(rdb, ttl)
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestRedisCacheStore_RoundTrip(t *testing.T) {
	s, _ := newTestRedisStore(t, 0)
	ctx := context.Background()

	got, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got, "an absent key is (nil, nil), not an error")

	require.NoError(t, s.Set(ctx, "k", []byte(`{"a":1}`)))
	got, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), got)
}

func TestRedisCacheStore_Remove(t *testing.T) {
	s, _ := newTestRedisStore(t, 0)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	require.NoError(t, s.Remove(ctx, "k"))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCacheStore_TTLExpires(t *testing.T) {
	s, mr := newTestRedisStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	mr.FastForward(2 * time.Minute)

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got, "the blob expires with the configured TTL")
}
