package database

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/cj-movies/internal/database/migrations"
	"github.com/yourusername/cj-movies/internal/models"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var userColumns = []string{"id", "username", "password_hash", "created_at"}

func TestUserRepositoryFindByUsername(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)SELECT id, username, password_hash, created_at FROM users\s+WHERE username = \$1`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(int64(7), "alice", "$2a$hash", created))

	user, err := repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "$2a$hash", user.PasswordHash)
	assert.Equal(t, created, user.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByUsernameAbsent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`FROM users\s+WHERE username = \$1`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(userColumns))

	user, err := repo.FindByUsername(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepositoryFindByIDError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`FROM users\s+WHERE id = \$1`).
		WithArgs(int64(3)).
		WillReturnError(errors.New("db down"))

	_, err := repo.FindByID(context.Background(), 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: db down")
}

func TestUserRepositoryInsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	created := time.Now().UTC()

	mock.ExpectQuery(`(?s)INSERT INTO users \(username, password_hash\)\s+VALUES \(\$1, \$2\)\s+RETURNING id, created_at`).
		WithArgs("alice", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), created))

	user, err := repo.Insert(context.Background(), "alice", "hash")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "hash", user.PasswordHash)
}

func TestUserRepositoryInsertDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("alice", "hash").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	_, err := repo.Insert(context.Background(), "alice", "hash")
	assert.ErrorIs(t, err, models.ErrDuplicate)
}

func TestUserRepositoryDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 9))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookmarkRepositoryExists(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookmarkRepository(db)

	mock.ExpectQuery(`(?s)SELECT EXISTS \(\s+SELECT 1 FROM bookmarks WHERE user_id = \$1 AND movie_id = \$2`).
		WithArgs(int64(1), int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.Exists(context.Background(), 1, 42)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBookmarkRepositoryInsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookmarkRepository(db)
	query := `(?s)INSERT INTO bookmarks \(user_id, movie_id\)\s+VALUES \(\$1, \$2\)\s+ON CONFLICT \(user_id, movie_id\) DO NOTHING`

	mock.ExpectExec(query).WithArgs(int64(1), int64(42)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs(int64(1), int64(42)).WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.Insert(context.Background(), 1, 42)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.Insert(context.Background(), 1, 42)
	require.NoError(t, err)
	assert.False(t, inserted, "conflict must be a silent no-op")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookmarkRepositoryDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookmarkRepository(db)

	mock.ExpectExec(`DELETE FROM bookmarks WHERE user_id = \$1 AND movie_id = \$2`).
		WithArgs(int64(1), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	removed, err := repo.Delete(context.Background(), 1, 42)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestBookmarkRepositoryListByUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookmarkRepository(db)

	mock.ExpectQuery(`(?s)SELECT movie_id FROM bookmarks\s+WHERE user_id = \$1\s+ORDER BY created_at, movie_id`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"movie_id"}).AddRow(int64(42)).AddRow(int64(7)))

	ids, err := repo.ListByUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{42, 7}, ids)
}

func TestBookmarkRepositoryListByUserEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookmarkRepository(db)

	mock.ExpectQuery(`SELECT movie_id FROM bookmarks`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"movie_id"}))

	ids, err := repo.ListByUser(context.Background(), 2)
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestRunMigrationsUsesEmbeddedFS(t *testing.T) {
	db, _ := newMockDB(t)

	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	var gotDir string
	gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
		gotDir = dir
		return nil
	}
	require.NoError(t, RunMigrations(context.Background(), db))
	assert.Equal(t, ".", gotDir)

	gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
		return errors.New("boom")
	}
	err := RunMigrations(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration error")
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"00001_create_users.sql", "00002_create_bookmarks.sql"}, files)
}
