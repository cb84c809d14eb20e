package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/yourusername/cj-movies/internal/apperr"
)

// AuthenticatedHandler は認証済みリクエストを受け取るハンドラーです。
type AuthenticatedHandler func(c *gin.Context, ac AuthContext)

// Authenticated はクッキーのセッションを検証し、成功したときだけ h を呼びます。
// セッションが無効ならクッキーを失効させて 401 を返します。
func (m *Manager) Authenticated(h AuthenticatedHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := sessionID(c)
		ac, err := m.service.Authenticate(c.Request.Context(), id)
		if err != nil {
			if id != "" && apperr.Is(err, apperr.KindUnauthorized) {
				m.clearCookie(c)
			}
			_ = c.Error(err)
			c.Abort()
			return
		}
		h(c, ac)
	}
}
