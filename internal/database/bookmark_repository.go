package database

import (
	"context"
	"fmt"
)

// BookmarkRepository は bookmarks テーブルへのアクセスを提供します。
type BookmarkRepository struct {
	db DBTX
}

// NewBookmarkRepository は BookmarkRepository を作成します。
func NewBookmarkRepository(db DBTX) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

// Exists は (userID, movieID) の組が保存済みかを返します。
func (r *BookmarkRepository) Exists(ctx context.Context, userID, movieID int64) (bool, error) {
	query :=
		`SELECT EXISTS (
		   SELECT 1 FROM bookmarks WHERE user_id = $1 AND movie_id = $2
		 )`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, movieID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// Insert は組を保存します。既に存在する場合は何もせず false を返します。
func (r *BookmarkRepository) Insert(ctx context.Context, userID, movieID int64) (bool, error) {
	query :=
		`INSERT INTO bookmarks (user_id, movie_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, movie_id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, userID, movieID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

// Delete は組を削除し、実際に削除したかを返します。
func (r *BookmarkRepository) Delete(ctx context.Context, userID, movieID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE user_id = $1 AND movie_id = $2`, userID, movieID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

// ListByUser はユーザーがブックマークした映画IDを登録順に返します。
func (r *BookmarkRepository) ListByUser(ctx context.Context, userID int64) ([]int64, error) {
	query :=
		`SELECT movie_id FROM bookmarks
		 WHERE user_id = $1
		 ORDER BY created_at, movie_id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ids, nil
}
