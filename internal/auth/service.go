package auth

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/cj-movies/internal/apperr"
	"github.com/yourusername/cj-movies/internal/models"
	"github.com/yourusername/cj-movies/internal/session"
)

// ユーザー不在とパスワード不一致で同じエラーを返す（ユーザー名の列挙対策）。
var errInvalidCredentials = apperr.Unauthorized("Incorrect username or password.")

var errUnauthenticated = apperr.Unauthorized("Unauthorized")

// UserStore はユーザーの永続化先です。見つからない場合は nil, nil を返します。
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	Insert(ctx context.Context, username, passwordHash string) (*models.User, error)
}

// SessionManager はセッションの発行・検証・破棄を行います。
type SessionManager interface {
	Create(ctx context.Context, userID int64) (*session.Session, error)
	Resolve(ctx context.Context, id string) (*session.Session, error)
	Destroy(ctx context.Context, id string) error
}

// Service は登録・ログイン・ログアウト・認証のフローをまとめます。
type Service struct {
	users    UserStore
	sessions SessionManager
	verifier CredentialVerifier
	logger   *slog.Logger
}

// NewService は Service を作成します。
func NewService(users UserStore, sessions SessionManager, verifier CredentialVerifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:    users,
		sessions: sessions,
		verifier: verifier,
		logger:   logger,
	}
}

// Register はユーザーを登録します。ユーザー名は完全一致で重複を判定します。
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, apperr.Invalid("username and password are required")
	}

	existing, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, apperr.Internal("Failed to register user", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("Username already registered")
	}

	hash, err := s.verifier.Hash(password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperr.Invalid("password must be at most 72 bytes")
		}
		return nil, apperr.Internal("Failed to register user", err)
	}

	user, err := s.users.Insert(ctx, username, hash)
	if err != nil {
		// 存在確認と挿入の間に同名の登録が割り込んだ場合
		if errors.Is(err, models.ErrDuplicate) {
			return nil, apperr.Conflict("Username already registered")
		}
		return nil, apperr.Internal("Failed to register user", err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login は資格情報を検証して新しいセッションを発行します。
// previousSessionID が指すクライアントの既存セッションは先に破棄します。
func (s *Service) Login(ctx context.Context, username, password, previousSessionID string) (AuthContext, error) {
	if username == "" || password == "" {
		return AuthContext{}, errInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return AuthContext{}, apperr.Internal("Failed to log in", err)
	}

	hash := ""
	if user != nil {
		hash = user.PasswordHash
	}
	if !s.verifier.Verify(password, hash) || user == nil {
		return AuthContext{}, errInvalidCredentials
	}

	if err := s.sessions.Destroy(ctx, previousSessionID); err != nil {
		return AuthContext{}, apperr.Internal("Failed to log in", err)
	}

	sess, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return AuthContext{}, apperr.Internal("Failed to log in", err)
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return AuthContext{User: user, Session: sess}, nil
}

// Logout はセッションを破棄します。既に存在しないセッションでもエラーにはなりません。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		return apperr.Internal("Error logging out", err)
	}
	return nil
}

// Authenticate はセッションIDからユーザーを解決します。
// セッションが無い・期限切れ・レコードが壊れている・ユーザーが削除済みの場合は Unauthorized を返します。
func (s *Service) Authenticate(ctx context.Context, sessionID string) (AuthContext, error) {
	sess, err := s.sessions.Resolve(ctx, sessionID)
	if err != nil {
		return AuthContext{}, apperr.Internal("Failed to load session", err)
	}
	if sess == nil {
		return AuthContext{}, errUnauthenticated
	}

	user, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		return AuthContext{}, apperr.Internal("Failed to load user", err)
	}
	if user == nil {
		// ユーザーが消えたセッションは孤立しているので破棄する
		if err := s.sessions.Destroy(ctx, sess.ID); err != nil {
			s.logger.WarnContext(ctx, "failed to destroy orphaned session", "error", err)
		}
		return AuthContext{}, errUnauthenticated
	}

	return AuthContext{User: user, Session: sess}, nil
}
