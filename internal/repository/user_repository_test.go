package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockUserRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewUserRepo(db), mock
}

// The admin update rewrites the user row and swaps the full role set in
// the same transaction, including collapsing repeated role ids.
func TestUserUpdateReplacesRoleSet(t *testing.T) {
	repo, mock := newMockUserRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM users WHERE id=? AND deleted_at IS NULL LIMIT 1").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("active"))
	mock.ExpectQuery("SELECT id FROM users WHERE email=? AND id<>? AND deleted_at IS NULL LIMIT 1").
		WithArgs("jo@example.com", 7).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("UPDATE users SET name=?, email=?, status=?, remark=?, updated_at=NOW() WHERE id=?").
		WithArgs("Jo", "jo@example.com", "active", nil, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectRoleExists(mock, 10)
	mock.ExpectExec("DELETE FROM user_roles WHERE user_id=?").
		WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO user_roles (user_id, role_id) VALUES (?,?)").
		WithArgs(7, 10).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), 7, UpdateUserParams{
		Name:    "Jo",
		Email:   "jo@example.com",
		RoleIDs: []uint64{10, 10},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdateMissingUser(t *testing.T) {
	repo, mock := newMockUserRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM users WHERE id=? AND deleted_at IS NULL LIMIT 1").
		WithArgs(404).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.Update(context.Background(), 404, UpdateUserParams{Name: "X", Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdateEmailTaken(t *testing.T) {
	repo, mock := newMockUserRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM users WHERE id=? AND deleted_at IS NULL LIMIT 1").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("active"))
	mock.ExpectQuery("SELECT id FROM users WHERE email=? AND id<>? AND deleted_at IS NULL LIMIT 1").
		WithArgs("taken@example.com", 7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), 7, UpdateUserParams{Name: "Jo", Email: "taken@example.com"})
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
