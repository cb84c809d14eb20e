package bookmark

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/cj-movies/internal/apperr"
	"github.com/yourusername/cj-movies/internal/auth"
	"github.com/yourusername/cj-movies/internal/models"
)

func newTestRouter(svc *Service, userID int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc)
	ac := auth.AuthContext{User: &models.User{ID: userID, Username: "alice"}}
	as := func(fn auth.AuthenticatedHandler) gin.HandlerFunc {
		return func(c *gin.Context) { fn(c, ac) }
	}

	r := gin.New()
	r.Use(apperr.Middleware(slog.New(slog.NewTextHandler(io.Discard, nil))))
	r.POST("/bookmark", as(h.Add))
	r.DELETE("/remove-bookmark", as(h.Remove))
	r.GET("/bookmarked-movies", as(h.List))
	return r
}

func send(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBookmarkHandlers(t *testing.T) {
	r := newTestRouter(newTestService(newFakeStore(), &fakeCatalog{}), 1)

	w := send(r, http.MethodPost, "/bookmark", `{"movieId":42}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"message":"Movie bookmarked successfully","created":true}`, w.Body.String())

	w = send(r, http.MethodPost, "/bookmark", `{"movieId":42}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Movie already bookmarked","created":false}`, w.Body.String())

	w = send(r, http.MethodGet, "/bookmarked-movies", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"Movie 42"`)

	w = send(r, http.MethodDelete, "/remove-bookmark", `{"movieId":42}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Bookmark removed successfully","removed":true}`, w.Body.String())

	w = send(r, http.MethodDelete, "/remove-bookmark", `{"movieId":42}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Bookmark not found")
}

func TestBookmarkedMoviesEmptyIsArray(t *testing.T) {
	r := newTestRouter(newTestService(newFakeStore(), &fakeCatalog{}), 1)

	w := send(r, http.MethodGet, "/bookmarked-movies", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"movies":[]}`, w.Body.String())
}

func TestBookmarkRejectsInvalidMovieID(t *testing.T) {
	r := newTestRouter(newTestService(newFakeStore(), &fakeCatalog{}), 1)

	for _, body := range []string{`{}`, `{"movieId":0}`, `{"movieId":-3}`, `{"movieId":"abc"}`} {
		w := send(r, http.MethodPost, "/bookmark", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestRemoveBookmarkAcceptsQuery(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(newTestService(store, &fakeCatalog{}), 1)
	send(r, http.MethodPost, "/bookmark", `{"movieId":7}`)

	w := send(r, http.MethodDelete, "/remove-bookmark?movieId=7", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, store.count())
}
