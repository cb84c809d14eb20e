// Package auth は認証・認可機能を提供します。
package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/cj-movies/internal/apperr"
)

// credentialsRequest は登録の入力です。JSON とフォームのどちらでも受け付けます。
type credentialsRequest struct {
	Username string `json:"username" form:"username" binding:"required,max=100"`
	Password string `json:"password" form:"password" binding:"required"`
}

// loginRequest はログインの入力です。欠けた項目は資格情報の不一致として 401 にします。
type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Register は POST /register のハンドラーです。
func (m *Manager) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		_ = c.Error(apperr.Binding(err))
		return
	}

	user, err := m.service.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"userId":  user.ID,
	})
}

// Login は POST /login のハンドラーです。
// 成功するとクライアントが持っていた古いセッションを破棄し、新しいセッションIDをクッキーに載せます。
func (m *Manager) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		_ = c.Error(apperr.Binding(err))
		return
	}

	ac, err := m.service.Login(c.Request.Context(), req.Username, req.Password, sessionID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := setSessionID(c, ac.Session.ID); err != nil {
		_ = m.service.Logout(c.Request.Context(), ac.Session.ID)
		_ = c.Error(apperr.Internal("Failed to log in", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged in successfully",
		"user":    ac.User,
	})
}

// Logout は POST /logout のハンドラーです。セッションが無くても成功します。
func (m *Manager) Logout(c *gin.Context) {
	if err := m.service.Logout(c.Request.Context(), sessionID(c)); err != nil {
		_ = c.Error(err)
		return
	}
	m.clearCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Profile は GET /profile のハンドラーです。
func (m *Manager) Profile(c *gin.Context, ac AuthContext) {
	c.JSON(http.StatusOK, gin.H{
		"message": "You are logged in",
		"user":    ac.User,
	})
}
