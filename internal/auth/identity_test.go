package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice-api/internal/model"
	"backoffice-api/internal/repository"
)

type fakeUsers struct {
	users map[uint64]model.User
	err   error
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	if f.err != nil {
		return model.User{}, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

type fakeRBAC struct {
	roles map[uint64][]model.Role       // keyed by user id
	perms map[uint64][]model.Permission // keyed by role id
}

func (f *fakeRBAC) RolesForUser(_ context.Context, userID uint64) ([]model.Role, error) {
	return f.roles[userID], nil
}

func (f *fakeRBAC) PermissionsForRole(_ context.Context, roleID uint64) ([]model.Permission, error) {
	return f.perms[roleID], nil
}

func activeUser(id uint64) model.User {
	verified := time.Now().Add(-time.Hour)
	return model.User{
		ID:              id,
		Name:            "Jo",
		Email:           "jo@example.com",
		Status:          model.StatusActive,
		EmailVerifiedAt: &verified,
	}
}

func TestResolveFlattensAndDeduplicates(t *testing.T) {
	users := &fakeUsers{users: map[uint64]model.User{1: activeUser(1)}}
	rbac := &fakeRBAC{
		roles: map[uint64][]model.Role{
			1: {{ID: 10, Name: "editor"}, {ID: 11, Name: "auditor"}},
		},
		perms: map[uint64][]model.Permission{
			10: {{ID: 1, Name: "user list"}, {ID: 2, Name: "user edit"}},
			11: {{ID: 1, Name: "user list"}, {ID: 3, Name: "audit view"}},
		},
	}

	info, err := NewResolver(users, rbac).Resolve(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), info.ID)
	assert.Equal(t, "jo@example.com", info.Email)
	// Sorted, and "user list" appears once despite being granted twice.
	assert.Equal(t, []string{"auditor", "editor"}, info.Roles)
	assert.Equal(t, []string{"audit view", "user edit", "user list"}, info.Permissions)
}

func TestResolveIsDeterministic(t *testing.T) {
	users := &fakeUsers{users: map[uint64]model.User{1: activeUser(1)}}
	rbac := &fakeRBAC{
		roles: map[uint64][]model.Role{1: {{ID: 10, Name: "editor"}}},
		perms: map[uint64][]model.Permission{
			10: {{ID: 2, Name: "b"}, {ID: 1, Name: "a"}, {ID: 3, Name: "c"}},
		},
	}
	r := NewResolver(users, rbac)

	first, err := r.Resolve(context.Background(), 1)
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolveIneligibleUsers(t *testing.T) {
	verified := time.Now()
	deleted := time.Now()

	inactive := activeUser(2)
	inactive.Status = model.StatusSuspended

	unverified := activeUser(3)
	unverified.EmailVerifiedAt = nil

	softDeleted := activeUser(4)
	softDeleted.EmailVerifiedAt = &verified
	softDeleted.DeletedAt = &deleted

	users := &fakeUsers{users: map[uint64]model.User{
		2: inactive,
		3: unverified,
		4: softDeleted,
	}}
	r := NewResolver(users, &fakeRBAC{})

	for _, id := range []uint64{2, 3, 4, 99} { // 99 does not exist
		_, err := r.Resolve(context.Background(), id)
		assert.ErrorIs(t, err, ErrUnauthenticated, "user %d should not resolve", id)
	}
}

func TestResolvePropagatesStoreErrors(t *testing.T) {
	boom := errors.New("connection refused")
	users := &fakeUsers{err: boom}

	_, err := NewResolver(users, &fakeRBAC{}).Resolve(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
}
