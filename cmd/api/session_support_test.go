package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/cj-movies/internal/config"
	"github.com/yourusername/cj-movies/internal/session"
)

func TestSetupSessionStoreMemory(t *testing.T) {
	store, closeFn, check, err := setupSessionStore(context.Background(), &config.Config{SessionStore: config.SessionStoreMemory})
	require.NoError(t, err)
	defer closeFn()

	assert.IsType(t, &session.MemoryStore{}, store)
	assert.Nil(t, check)
}

func TestSetupSessionStoreRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{SessionStore: config.SessionStoreRedis, RedisURL: "redis://" + mr.Addr() + "/0"}

	store, closeFn, check, err := setupSessionStore(context.Background(), cfg)
	require.NoError(t, err)
	defer closeFn()

	assert.IsType(t, &session.RedisStore{}, store)
	require.NotNil(t, check)
	assert.NoError(t, check(context.Background()))
}

func TestSetupSessionStoreRedisUnreachable(t *testing.T) {
	cfg := &config.Config{SessionStore: config.SessionStoreRedis, RedisURL: "redis://127.0.0.1:1/0"}

	_, _, _, err := setupSessionStore(context.Background(), cfg)
	assert.Error(t, err)
}

func TestCookieSecret(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	got, err := cookieSecret(&config.Config{SessionSecret: "configured"}, logger)
	require.NoError(t, err)
	assert.Equal(t, []byte("configured"), got)

	a, err := cookieSecret(&config.Config{}, logger)
	require.NoError(t, err)
	b, err := cookieSecret(&config.Config{}, logger)
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
