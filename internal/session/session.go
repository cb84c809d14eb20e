// Package session はサーバー側セッションの発行・検証・破棄を提供します。
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultTTL はセッションの既定の有効期間です。
const DefaultTTL = 24 * time.Hour

// ErrInvalidRecord は保存先のレコードが壊れていることを表します。
var ErrInvalidRecord = errors.New("invalid session record")

// Session はクライアントが保持する不透明なIDとユーザーIDを結び付けるレコードです。
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired は now 時点で期限切れかを返します。
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store はセッションレコードの保存先です。Get は存在しない場合 nil, nil を返します。
// Delete は削除したかどうかを返し、存在しないIDに対してもエラーを返しません。
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Set(ctx context.Context, s *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) (bool, error)
}

// Observer はセッションの発行・破棄を受け取ります。
type Observer interface {
	SessionCreated()
	SessionDestroyed()
}

// Manager はセッションのライフサイクルを管理します。
type Manager struct {
	store    Store
	ttl      time.Duration
	clock    clockwork.Clock
	observer Observer
}

// Option は Manager の設定です。
type Option func(*Manager)

// WithClock は時刻の取得元を差し替えます。
func WithClock(clock clockwork.Clock) Option {
	return func(m *Manager) { m.clock = clock }
}

// WithObserver は発行・破棄の通知先を設定します。
func WithObserver(o Observer) Option {
	return func(m *Manager) { m.observer = o }
}

// NewManager は Manager を作成します。ttl が 0 以下なら DefaultTTL を使います。
func NewManager(store Store, ttl time.Duration, opts ...Option) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Manager{
		store: store,
		ttl:   ttl,
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL はセッションの有効期間を返します。
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create は userID に紐づく新しいセッションを発行します。
func (m *Manager) Create(ctx context.Context, userID int64) (*Session, error) {
	id, err := newID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}
	now := m.clock.Now().UTC()
	s := &Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Set(ctx, s, m.ttl); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	if m.observer != nil {
		m.observer.SessionCreated()
	}
	return s, nil
}

// Resolve はIDに対応する有効なセッションを返します。存在しない・期限切れ・壊れている場合は nil です。
// 期限切れや壊れたレコードはその場で削除します。
func (m *Manager) Resolve(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, nil
	}
	s, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrInvalidRecord) {
		if _, err := m.store.Delete(ctx, id); err != nil {
			return nil, fmt.Errorf("failed to delete invalid session: %w", err)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if s == nil {
		return nil, nil
	}
	if s.Expired(m.clock.Now()) {
		if _, err := m.store.Delete(ctx, id); err != nil {
			return nil, fmt.Errorf("failed to delete expired session: %w", err)
		}
		return nil, nil
	}
	return s, nil
}

// Destroy はセッションを破棄します。存在しないIDでもエラーにはなりません。
// 破棄の通知は実際にレコードを削除したときだけ行います。
func (m *Manager) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	deleted, err := m.store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if deleted && m.observer != nil {
		m.observer.SessionDestroyed()
	}
	return nil
}

func newID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
