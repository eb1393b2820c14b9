package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRBACRepo(t *testing.T) (*RBACRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRBACRepo(db), mock
}

func expectRoleExists(mock sqlmock.Sqlmock, id int) {
	mock.ExpectQuery("SELECT id FROM roles WHERE id=? LIMIT 1").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id))
}

func TestAssignRolesReplacesFullSet(t *testing.T) {
	repo, mock := newMockRBACRepo(t)

	mock.ExpectBegin()
	expectRoleExists(mock, 10)
	expectRoleExists(mock, 11)
	mock.ExpectExec("DELETE FROM user_roles WHERE user_id=?").
		WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO user_roles (user_id, role_id) VALUES (?,?)").
		WithArgs(1, 10).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO user_roles (user_id, role_id) VALUES (?,?)").
		WithArgs(1, 11).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.AssignRoles(context.Background(), 1, []uint64{10, 11}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A repeated id is validated and inserted once, so it cannot trip the
// join-table primary key.
func TestAssignRolesDeduplicatesIDs(t *testing.T) {
	repo, mock := newMockRBACRepo(t)

	mock.ExpectBegin()
	expectRoleExists(mock, 10)
	expectRoleExists(mock, 11)
	mock.ExpectExec("DELETE FROM user_roles WHERE user_id=?").
		WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO user_roles (user_id, role_id) VALUES (?,?)").
		WithArgs(5, 10).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO user_roles (user_id, role_id) VALUES (?,?)").
		WithArgs(5, 11).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.AssignRoles(context.Background(), 5, []uint64{10, 10, 11, 10}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignRolesUnknownRole(t *testing.T) {
	repo, mock := newMockRBACRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM roles WHERE id=? LIMIT 1").
		WithArgs(99).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.AssignRoles(context.Background(), 1, []uint64{99})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// An empty set strips every assignment: delete runs, nothing is inserted.
func TestAssignRolesEmptySet(t *testing.T) {
	repo, mock := newMockRBACRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM user_roles WHERE user_id=?").
		WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.AssignRoles(context.Background(), 1, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDedupeIDs(t *testing.T) {
	assert.Equal(t, []uint64{3, 1, 2}, dedupeIDs([]uint64{3, 1, 3, 2, 1}))
	assert.Empty(t, dedupeIDs(nil))
}
