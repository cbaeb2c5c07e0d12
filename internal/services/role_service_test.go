package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerCannotBeRemoved(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, e.roles.SeedFromConfig(ctx))

	for _, caller := range []int64{testOwnerID, testDevID, 999} {
		assert.ErrorIs(t, e.roles.RemoveAdmin(ctx, testOwnerID, caller), ErrOwnerProtected)
		assert.ErrorIs(t, e.roles.RemoveDeveloper(ctx, testOwnerID, caller), ErrOwnerProtected)
	}
	isAdmin, err := e.roles.IsAdmin(ctx, testOwnerID)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	assert.ErrorIs(t, e.users.Ban(ctx, testOwnerID, "x", testDevID), ErrOwnerProtected)
}

func TestRoleHierarchy(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	dev, err := e.roles.IsDeveloper(ctx, testDevID)
	require.NoError(t, err)
	assert.True(t, dev)
	admin, err := e.roles.IsAdmin(ctx, testDevID)
	require.NoError(t, err)
	assert.True(t, admin)

	admin, err = e.roles.IsAdmin(ctx, 300)
	require.NoError(t, err)
	assert.False(t, admin)
}

func TestAddRemoveAdminByHandle(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.track(t, 300, "Helper")

	a, err := e.roles.AddAdmin(ctx, "@helper", testOwnerID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), a.UserID)
	assert.Equal(t, "Helper", a.Username)

	_, err = e.roles.AddAdmin(ctx, "300", testOwnerID)
	assert.ErrorIs(t, err, ErrAlreadyAdmin)
	_, err = e.roles.AddAdmin(ctx, "@ghost", testOwnerID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = e.roles.AddAdmin(ctx, "@", testOwnerID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	admins, err := e.roles.ListAdmins(ctx)
	require.NoError(t, err)
	assert.Len(t, admins, 1)

	require.NoError(t, e.roles.RemoveAdmin(ctx, 300, testOwnerID))
	assert.ErrorIs(t, e.roles.RemoveAdmin(ctx, 300, testOwnerID), ErrNotAdmin)
}

func TestAddDeveloper(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	_, err := e.roles.AddDeveloper(ctx, "400", testOwnerID)
	require.NoError(t, err)
	_, err = e.roles.AddDeveloper(ctx, "400", testOwnerID)
	assert.ErrorIs(t, err, ErrAlreadyDeveloper)
	_, err = e.roles.AddDeveloper(ctx, "1", testOwnerID)
	assert.ErrorIs(t, err, ErrAlreadyDeveloper)

	_, err = e.roles.AddAdmin(ctx, "400", testOwnerID)
	assert.ErrorIs(t, err, ErrAlreadyAdmin)

	require.NoError(t, e.roles.RemoveDeveloper(ctx, 400, testOwnerID))
	dev, err := e.roles.IsDeveloper(ctx, 400)
	require.NoError(t, err)
	assert.False(t, dev)
}

func TestAdminIDsDeduplicates(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, e.roles.SeedFromConfig(ctx))
	require.NoError(t, e.roles.SeedFromConfig(ctx))
	_, err := e.roles.AddAdmin(ctx, "500", testOwnerID)
	require.NoError(t, err)

	ids, err := e.roles.AdminIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{testOwnerID, testDevID, 500}, ids)
}
