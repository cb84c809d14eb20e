package auth

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const (
	// DefaultCookieName はセッションIDを運ぶクッキーの既定名です。
	DefaultCookieName = "cjm_session"

	// クッキーに保存するのはセッションIDだけ。レコード本体はセッションストアにある。
	sessionKeyID = "sid"
)

// CookieOptions はセッションクッキーの属性です。
type CookieOptions struct {
	MaxAge   int
	Secure   bool
	SameSite http.SameSite
	Domain   string
}

// NewCookieStore は署名付きクッキーストアを作成します。
func NewCookieStore(secret []byte, opts CookieOptions) sessions.Store {
	store := cookie.NewStore(secret)
	store.Options(sessions.Options{
		Path:     "/",
		Domain:   opts.Domain,
		MaxAge:   opts.MaxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
	return store
}

// Manager は認証フローを HTTP に結び付けます。
type Manager struct {
	service *Service
	cookie  CookieOptions
	logger  *slog.Logger
}

// NewManager は認証マネージャーを作成します。cookie はクッキーの失効時に使います。
func NewManager(service *Service, cookie CookieOptions, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{service: service, cookie: cookie, logger: logger}
}

// sessionID はクッキーからセッションIDを読み出します。無ければ空文字です。
func sessionID(c *gin.Context) string {
	id, _ := sessions.Default(c).Get(sessionKeyID).(string)
	return id
}

// setSessionID はクッキーにセッションIDを保存します。
func setSessionID(c *gin.Context, id string) error {
	s := sessions.Default(c)
	s.Clear()
	s.Set(sessionKeyID, id)
	return s.Save()
}

// clearCookie はクッキーを失効させます。
func (m *Manager) clearCookie(c *gin.Context) {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{
		Path:     "/",
		Domain:   m.cookie.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cookie.Secure,
		SameSite: m.cookie.SameSite,
	})
	if err := s.Save(); err != nil {
		m.logger.WarnContext(c.Request.Context(), "failed to clear session cookie", "error", err)
	}
}
