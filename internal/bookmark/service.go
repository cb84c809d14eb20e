// Package bookmark はブックマークの追加・削除・一覧を提供します。
package bookmark

import (
	"context"
	"log/slog"

	"github.com/yourusername/cj-movies/internal/apperr"
	"github.com/yourusername/cj-movies/internal/catalog"
	"github.com/yourusername/cj-movies/internal/fanout"
)

// DefaultConcurrency は一覧取得時のカタログ呼び出しの既定の同時実行数です。
const DefaultConcurrency = 8

// Store はブックマークの永続化先です。(userID, movieID) の組は一意です。
type Store interface {
	Exists(ctx context.Context, userID, movieID int64) (bool, error)
	// Insert は既に存在する場合 false を返します。
	Insert(ctx context.Context, userID, movieID int64) (bool, error)
	// Delete は存在しなかった場合 false を返します。
	Delete(ctx context.Context, userID, movieID int64) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]int64, error)
}

// Catalog は映画の詳細を取得します。
type Catalog interface {
	GetMovieByID(ctx context.Context, id int64) (*catalog.Movie, error)
}

// Observer はブックマークの変更結果を受け取ります。
type Observer interface {
	BookmarkMutation(op, result string)
}

// Service はブックマークのフローをまとめます。
type Service struct {
	store       Store
	catalog     Catalog
	concurrency int
	observer    Observer
	logger      *slog.Logger
}

// Option は Service の設定です。
type Option func(*Service)

// WithConcurrency は一覧取得時の同時実行数を設定します。
func WithConcurrency(n int) Option {
	return func(s *Service) { s.concurrency = n }
}

// WithObserver は変更結果の通知先を設定します。
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithLogger はロガーを設定します。
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService は Service を作成します。
func NewService(store Store, cat Catalog, opts ...Option) *Service {
	s := &Service{
		store:       store,
		catalog:     cat,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add はブックマークを追加します。既に存在する場合はエラーにせず created=false を返します。
// 存在確認と挿入の間に同じ組が挿入されても、挿入側で衝突を無視するため重複はできません。
func (s *Service) Add(ctx context.Context, userID, movieID int64) (bool, error) {
	exists, err := s.store.Exists(ctx, userID, movieID)
	if err != nil {
		s.observe("add", "error")
		return false, apperr.Internal("Failed to bookmark movie", err)
	}
	if exists {
		s.observe("add", "exists")
		return false, nil
	}

	created, err := s.store.Insert(ctx, userID, movieID)
	if err != nil {
		s.observe("add", "error")
		return false, apperr.Internal("Failed to bookmark movie", err)
	}
	if created {
		s.observe("add", "created")
	} else {
		s.observe("add", "exists")
	}
	return created, nil
}

// Remove はブックマークを削除します。存在しない場合は NotFound です。
func (s *Service) Remove(ctx context.Context, userID, movieID int64) error {
	removed, err := s.store.Delete(ctx, userID, movieID)
	if err != nil {
		s.observe("remove", "error")
		return apperr.Internal("Failed to remove bookmark", err)
	}
	if !removed {
		s.observe("remove", "not_found")
		return apperr.NotFound("Bookmark not found")
	}
	s.observe("remove", "removed")
	return nil
}

// List はブックマークした映画の要約を返します。
// 詳細の取得に失敗した映画はログに残して結果から外します。順序は保証しません。
func (s *Service) List(ctx context.Context, userID int64) ([]catalog.MovieSummary, error) {
	ids, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch user-bookmarked movies", err)
	}
	if len(ids) == 0 {
		return []catalog.MovieSummary{}, nil
	}

	movies := fanout.Gather(ctx, ids, s.concurrency,
		func(ctx context.Context, id int64) (catalog.MovieSummary, error) {
			m, err := s.catalog.GetMovieByID(ctx, id)
			if err != nil {
				return catalog.MovieSummary{}, err
			}
			return catalog.Summarize(m), nil
		},
		func(id int64, err error) {
			s.logger.WarnContext(ctx, "failed to fetch movie details",
				"movie_id", id, "user_id", userID, "error", err)
		},
	)
	return movies, nil
}

func (s *Service) observe(op, result string) {
	if s.observer != nil {
		s.observer.BookmarkMutation(op, result)
	}
}
