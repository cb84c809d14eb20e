package bookmark

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/cj-movies/internal/apperr"
	"github.com/yourusername/cj-movies/internal/auth"
)

type movieRequest struct {
	MovieID int64 `json:"movieId" form:"movieId" binding:"required,gt=0"`
}

// Handler はブックマークの HTTP ハンドラーです。いずれも認証済みリクエストを前提とします。
type Handler struct {
	service *Service
}

// NewHandler は Handler を作成します。
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Add は POST /bookmark のハンドラーです。
func (h *Handler) Add(c *gin.Context, ac auth.AuthContext) {
	var req movieRequest
	if err := c.ShouldBind(&req); err != nil {
		_ = c.Error(apperr.Binding(err))
		return
	}

	created, err := h.service.Add(c.Request.Context(), ac.UserID(), req.MovieID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if !created {
		c.JSON(http.StatusOK, gin.H{"message": "Movie already bookmarked", "created": false})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Movie bookmarked successfully", "created": true})
}

// Remove は DELETE /remove-bookmark のハンドラーです。
func (h *Handler) Remove(c *gin.Context, ac auth.AuthContext) {
	var req movieRequest
	if err := c.ShouldBind(&req); err != nil {
		_ = c.Error(apperr.Binding(err))
		return
	}

	if err := h.service.Remove(c.Request.Context(), ac.UserID(), req.MovieID); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bookmark removed successfully", "removed": true})
}

// List は GET /bookmarked-movies のハンドラーです。
func (h *Handler) List(c *gin.Context, ac auth.AuthContext) {
	movies, err := h.service.List(c.Request.Context(), ac.UserID())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movies": movies})
}
