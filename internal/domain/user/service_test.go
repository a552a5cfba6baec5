package user_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"online-polls/internal/domain/user"
	"online-polls/internal/repository/sqlite"
)

func newService(t *testing.T) *user.Service {
	t.Helper()
	db, err := sqlite.Open("", uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return user.NewService(sqlite.NewUserRepo(db)).WithHashCost(bcrypt.MinCost)
}

func TestRegister(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, " John@Example.com ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, user.RoleVoter, u.Role)
	assert.Equal(t, "john@example.com", u.Email)
	assert.True(t, u.IsActive)
	assert.NotZero(t, u.ID)
	assert.NotEmpty(t, u.PasswordHash)
	assert.NotEqual(t, "s3cret", u.PasswordHash)

	_, err = svc.Register(ctx, "JOHN@example.com", "another")
	assert.ErrorIs(t, err, user.ErrEmailTaken)

	for _, tc := range []struct{ email, password string }{
		{"", "x"},
		{"a@b.c", ""},
		{"not-an-email", "x"},
	} {
		_, err := svc.Register(ctx, tc.email, tc.password)
		assert.ErrorIs(t, err, user.ErrInvalidInput, "email=%q", tc.email)
	}
}

func TestLogin(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "john@example.com", "s3cret")
	require.NoError(t, err)

	got, err := svc.Login(ctx, " JOHN@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Login(ctx, "john@example.com", "wrong")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@example.com", "s3cret")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)

	require.NoError(t, svc.Deactivate(ctx, u.ID))
	_, err = svc.Login(ctx, "john@example.com", "s3cret")
	assert.ErrorIs(t, err, user.ErrInactiveUser)
	// a wrong password on an inactive account still reads as bad credentials
	_, err = svc.Login(ctx, "john@example.com", "wrong")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)
}

func TestEnsureAdmin(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	admin, err := svc.EnsureAdmin(ctx, "root@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, admin.Role)

	again, err := svc.EnsureAdmin(ctx, "root@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID)

	voter, err := svc.Register(ctx, "v1@example.com", "pw")
	require.NoError(t, err)
	promoted, err := svc.EnsureAdmin(ctx, "V1@example.com", "ignored")
	require.NoError(t, err)
	assert.Equal(t, voter.ID, promoted.ID)
	assert.Equal(t, user.RoleAdmin, promoted.Role)

	stored, err := svc.GetByID(ctx, voter.ID)
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, stored.Role)
}

func TestRolesAndVoterListing(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.EnsureAdmin(ctx, "root@example.com", "pw")
	require.NoError(t, err)
	v1, err := svc.Register(ctx, "v1@example.com", "pw")
	require.NoError(t, err)
	v2, err := svc.Register(ctx, "v2@example.com", "pw")
	require.NoError(t, err)
	v3, err := svc.Register(ctx, "v3@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, v2.ID))
	assert.ErrorIs(t, svc.UpdateRole(ctx, v3.ID, "superuser"), user.ErrInvalidInput)
	require.NoError(t, svc.UpdateRole(ctx, v3.ID, user.RoleAdmin))
	assert.ErrorIs(t, svc.UpdateRole(ctx, 999, user.RoleVoter), user.ErrUserNotFound)
	assert.ErrorIs(t, svc.Deactivate(ctx, 999), user.ErrUserNotFound)

	voters, err := svc.ListActiveVoters(ctx)
	require.NoError(t, err)
	require.Len(t, voters, 1)
	assert.Equal(t, v1.ID, voters[0].ID)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}
