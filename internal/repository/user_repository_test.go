package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/docmanager/internal/model"
)

var userCols = []string{"id", "email", "password_hash", "name", "role", "created_at", "updated_at"}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func TestUserRepo_CreateNormalizesEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(`^INSERT INTO users`).
		WithArgs("u-1", "alice@x.com", "hash", "Alice", "viewer", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), model.User{
		ID: "u-1", Email: " Alice@X.com", PasswordHash: "hash", Name: "Alice",
		Role: model.RoleViewer, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
}

func TestUserRepo_CreateDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(`^INSERT INTO users`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := repo.Create(context.Background(), model.User{ID: "u-1", Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserRepo_GetByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email=\?`).
		WithArgs("alice@x.com").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u-1", "alice@x.com", "hash", "Alice", "editor", now, now))

	u, err := repo.GetByEmail(context.Background(), "ALICE@x.com ")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, model.RoleEditor, u.Role)
	assert.Equal(t, now, u.CreatedAt)
}

func TestUserRepo_GetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id=\?`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := repo.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_GetByIDDBError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id=\?`).
		WillReturnError(errors.New("db down"))

	_, err := repo.GetByID(context.Background(), "u-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .+ FROM users ORDER BY created_at, id`).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u-1", "a@x.com", "h", "A", "admin", now, now).
			AddRow("u-2", "b@x.com", "h", "B", "viewer", now, now))

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, model.RoleAdmin, users[0].Role)
	assert.Equal(t, "u-2", users[1].ID)
}

func TestUserRepo_UpdateRole(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(`^UPDATE users SET role=\?, updated_at=\? WHERE id=\?`).
		WithArgs("editor", now, "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .+ FROM users WHERE id=\?`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u-1", "a@x.com", "h", "A", "editor", now, now))

	u, err := repo.UpdateRole(context.Background(), "u-1", model.RoleEditor, now)
	require.NoError(t, err)
	assert.Equal(t, model.RoleEditor, u.Role)
}

func TestUserRepo_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(`^DELETE FROM users WHERE id=\?`).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^DELETE FROM users WHERE id=\?`).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "u-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "u-1"), ErrNotFound)
}
