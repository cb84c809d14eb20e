package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yourusername/cj-movies/internal/models"
)

// UserRepository は users テーブルへのアクセスを提供します。
type UserRepository struct {
	db DBTX
}

// NewUserRepository は UserRepository を作成します。
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// FindByUsername はユーザー名の完全一致で検索します。存在しない場合は nil, nil を返します。
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT id, username, password_hash, created_at FROM users
		 WHERE username = $1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, username))
}

// FindByID は ID で検索します。存在しない場合は nil, nil を返します。
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query :=
		`SELECT id, username, password_hash, created_at FROM users
		 WHERE id = $1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// Insert はユーザーを作成します。ユーザー名が重複した場合は models.ErrDuplicate を返します。
func (r *UserRepository) Insert(ctx context.Context, username, passwordHash string) (*models.User, error) {
	query :=
		`INSERT INTO users (username, password_hash)
		 VALUES ($1, $2)
		 RETURNING id, created_at`

	user := &models.User{Username: username, PasswordHash: passwordHash}
	err := r.db.QueryRowContext(ctx, query, username, passwordHash).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrDuplicate
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// Delete はユーザーを削除します。ブックマークは外部キーの CASCADE で消えます。
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *UserRepository) scanOne(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}
