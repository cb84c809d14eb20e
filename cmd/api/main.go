// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/yourusername/cj-movies/internal/auth"
	"github.com/yourusername/cj-movies/internal/bookmark"
	"github.com/yourusername/cj-movies/internal/catalog"
	"github.com/yourusername/cj-movies/internal/config"
	"github.com/yourusername/cj-movies/internal/database"
	"github.com/yourusername/cj-movies/internal/logging"
	"github.com/yourusername/cj-movies/internal/metrics"
	"github.com/yourusername/cj-movies/internal/server"
	"github.com/yourusername/cj-movies/internal/session"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// データベース
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.DBAutoMigrate {
		if err := database.RunMigrations(ctx, db); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	checks := map[string]server.Check{"database": db.PingContext}

	// セッションストア
	store, closeStore, check, err := setupSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	if check != nil {
		checks["redis"] = check
	}
	sessions := session.NewManager(store, cfg.SessionTTL, session.WithObserver(m))

	cookieOpts := auth.CookieOptions{
		MaxAge:   int(cfg.SessionTTL.Seconds()),
		Secure:   cfg.CookieSecure,
		SameSite: cfg.SameSite(),
		Domain:   cfg.CookieDomain,
	}
	secret, err := cookieSecret(cfg, logger)
	if err != nil {
		return err
	}

	users := database.NewUserRepository(db)
	authService := auth.NewService(users, sessions, auth.NewBcryptVerifier(cfg.BcryptCost), logger)

	cat := catalog.NewClient(catalog.Config{
		BaseURL:     cfg.TMDBBaseURL,
		Token:       cfg.TMDBAPIToken,
		Language:    cfg.TMDBLanguage,
		Timeout:     cfg.CatalogTimeout,
		MaxAttempts: cfg.CatalogMaxAttempts,
	}, catalog.WithObserver(m), catalog.WithLogger(logger))

	bookmarks := bookmark.NewService(database.NewBookmarkRepository(db), cat,
		bookmark.WithConcurrency(cfg.CatalogMaxConcurrency),
		bookmark.WithObserver(m),
		bookmark.WithLogger(logger),
	)

	router := server.NewRouter(server.Dependencies{
		Logger:         logger,
		Auth:           auth.NewManager(authService, cookieOpts, logger),
		Bookmarks:      bookmark.NewHandler(bookmarks),
		Catalog:        cat,
		Metrics:        m,
		Gatherer:       reg,
		CookieName:     cfg.SessionCookieName,
		CookieStore:    auth.NewCookieStore(secret, cookieOpts),
		AllowedOrigins: cfg.AllowedOrigins(),
		Checks:         checks,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting API server", "addr", srv.Addr, "mode", cfg.GinMode, "session_store", cfg.SessionStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
