package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/cj-movies/internal/apperr"
	"github.com/yourusername/cj-movies/internal/logging"
)

// RequestIDHeader はリクエストIDを運ぶヘッダーです。
const RequestIDHeader = "X-Request-Id"

// RequestID はリクエストIDをコンテキストとレスポンスヘッダーに設定します。
// 受信ヘッダーに値があればそれを使います。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = logging.NewRequestID()
		}
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// AccessLog はリクエストごとに1行のアクセスログを出力します。
func AccessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		logger.InfoContext(c.Request.Context(), "request",
			"method", c.Request.Method,
			"route", route,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// Recovery は panic を回収し、共通のエラー形式で 500 を返します。
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		apperr.Render(c, logger, apperr.Internal("Internal server error", fmt.Errorf("panic: %v", recovered)))
	})
}
