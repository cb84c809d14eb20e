package auth

import (
	"github.com/yourusername/cj-movies/internal/models"
	"github.com/yourusername/cj-movies/internal/session"
)

// AuthContext は認証済みリクエストのユーザーとセッションです。
// ハンドラーには引数として渡します。
type AuthContext struct {
	User    *models.User
	Session *session.Session
}

// UserID は認証済みユーザーのIDを返します。
func (a AuthContext) UserID() int64 {
	if a.User == nil {
		return 0
	}
	return a.User.ID
}
