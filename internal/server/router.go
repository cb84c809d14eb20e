// Package server は HTTP ルーターの組み立てを行います。
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourusername/cj-movies/internal/apperr"
	"github.com/yourusername/cj-movies/internal/auth"
	"github.com/yourusername/cj-movies/internal/bookmark"
	"github.com/yourusername/cj-movies/internal/metrics"
)

const (
	serviceName    = "cj-movies-api"
	serviceVersion = "0.1.0"

	healthTimeout = 2 * time.Second
)

// PopularSource は人気映画一覧を返します。
type PopularSource interface {
	GetPopular(ctx context.Context) (json.RawMessage, error)
}

// Check は依存先の疎通確認です。
type Check func(ctx context.Context) error

// Dependencies はルーターが必要とする部品です。
type Dependencies struct {
	Logger         *slog.Logger
	Auth           *auth.Manager
	Bookmarks      *bookmark.Handler
	Catalog        PopularSource
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	CookieName     string
	CookieStore    sessions.Store
	AllowedOrigins []string
	Checks         map[string]Check
}

// NewRouter はミドルウェアとルートを登録した gin.Engine を返します。
func NewRouter(d Dependencies) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cookieName := d.CookieName
	if cookieName == "" {
		cookieName = auth.DefaultCookieName
	}

	router := gin.New()
	router.Use(
		RequestID(),
		AccessLog(logger),
		d.Metrics.Middleware(),
		Recovery(logger),
		apperr.Middleware(logger),
	)

	// CORSミドルウェアの設定（SPA からクッキー付きで呼ばれる）
	if len(d.AllowedOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = d.AllowedOrigins
		corsConfig.AllowCredentials = true
		corsConfig.AllowHeaders = []string{
			"Origin",
			"Content-Type",
			"Accept",
			RequestIDHeader,
		}
		corsConfig.ExposeHeaders = []string{RequestIDHeader}
		router.Use(cors.New(corsConfig))
	}

	router.GET("/health", handleHealth(d.Checks))
	if d.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
	router.GET("/popular", handlePopular(d.Catalog))

	// セッションクッキーが必要なルート
	app := router.Group("")
	app.Use(sessions.Sessions(cookieName, d.CookieStore))
	{
		app.POST("/register", d.Auth.Register)
		app.POST("/login", d.Auth.Login)
		app.POST("/logout", d.Auth.Logout)
		app.GET("/profile", d.Auth.Authenticated(d.Auth.Profile))

		app.POST("/bookmark", d.Auth.Authenticated(d.Bookmarks.Add))
		app.DELETE("/remove-bookmark", d.Auth.Authenticated(d.Bookmarks.Remove))
		app.GET("/bookmarked-movies", d.Auth.Authenticated(d.Bookmarks.List))
	}

	return router
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
// 登録された依存先のいずれかが応答しなければ 503 を返します。
func handleHealth(checks map[string]Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		failed := make(map[string]string)
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failed[name] = err.Error()
			}
		}

		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "degraded",
				"service": serviceName,
				"checks":  failed,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
			"version": serviceVersion,
		})
	}
}

// handlePopular はカタログAPIの人気映画一覧をそのまま返します。
func handlePopular(source PopularSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := source.GetPopular(c.Request.Context())
		if err != nil {
			_ = c.Error(apperr.Upstream("Failed to fetch popular movies", err))
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", body)
	}
}
