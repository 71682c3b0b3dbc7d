package client

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteCacheStore {
	t.Helper()
	s, err := NewSQLiteCacheStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteCacheStore_RoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	got, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got, "an absent key is (nil, nil), not an error")

	require.NoError(t, s.Set(ctx, "k", []byte(`{"a":1}`)))
	got, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), got)
}

func TestSQLiteCacheStore_SetOverwrites(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("old")))
	require.NoError(t, s.Set(ctx, "k", []byte("new")))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestSQLiteCacheStore_Remove(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	require.NoError(t, s.Remove(ctx, "k"))
	require.NoError(t, s.Remove(ctx, "k"), "removing an absent key is fine")

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteCacheStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	s1, err := NewSQLiteCacheStore(path)
	require.NoError(t, err)
	require.NoError(t, s1.Set(ctx, persistenceKey("cred"), []byte("payload")))
	require.NoError(t, s1.Close())

	s2, err := NewSQLiteCacheStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { s2.Close() })

	got, err := s2.Get(ctx, persistenceKey("cred"))
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}
