package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourusername/cj-movies/internal/config"
	"github.com/yourusername/cj-movies/internal/session"
)

const memorySweepInterval = time.Minute

// setupSessionStore は SESSION_STORE に応じたセッションストアを作成します。
// redis の場合は疎通確認用の関数も返します。
func setupSessionStore(ctx context.Context, cfg *config.Config) (session.Store, func(), func(context.Context) error, error) {
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		rdb, err := session.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		ping := func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		return session.NewRedisStore(rdb), func() { _ = rdb.Close() }, ping, nil
	default:
		store := session.NewMemoryStore(nil)
		sweepCtx, cancel := context.WithCancel(ctx)
		go store.RunSweeper(sweepCtx, memorySweepInterval)
		return store, cancel, nil, nil
	}
}

// cookieSecret はクッキー署名鍵を返します。
// 開発時に SESSION_SECRET が空なら起動ごとに乱数で生成します（再起動でログアウトされる）。
func cookieSecret(cfg *config.Config, logger *slog.Logger) ([]byte, error) {
	if cfg.SessionSecret != "" {
		return []byte(cfg.SessionSecret), nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate session secret: %w", err)
	}
	logger.Warn("SESSION_SECRET is not set; using a random key for this process")
	return buf, nil
}
