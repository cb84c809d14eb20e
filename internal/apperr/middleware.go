package apperr

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// Response はエラー時のレスポンスボディです。
type Response struct {
	Status  int    `json:"status"`
	Code    Kind   `json:"code"`
	Message string `json:"message"`
}

// Middleware はハンドラーが c.Error で積んだエラーを共通の形式で返します。
// 既にレスポンスが書き込まれている場合は何もしません。
func Middleware(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		Render(c, logger, c.Errors.Last().Err)
	}
}

// Render は err を分類に応じたステータスと本文で書き込みます。
func Render(c *gin.Context, logger *slog.Logger, err error) {
	appErr := From(err)
	status := appErr.Status()

	attrs := []any{
		"code", appErr.Kind,
		"status", status,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	switch appErr.Kind {
	case KindInternal, KindUpstream:
		if appErr.Err != nil {
			attrs = append(attrs, "cause", appErr.Err.Error())
		}
		logger.ErrorContext(c.Request.Context(), appErr.Message, attrs...)
	case KindConflict:
		logger.WarnContext(c.Request.Context(), appErr.Message, attrs...)
	default:
		logger.InfoContext(c.Request.Context(), appErr.Message, attrs...)
	}

	c.AbortWithStatusJSON(status, Response{
		Status:  status,
		Code:    appErr.Kind,
		Message: appErr.Message,
	})
}
