package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arkforge/scaffold/internal/service"
)

func TestCreateAndEditRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	role, err := f.roles.CreateRole(ctx, service.CreateRoleCommand{
		Name:        "moderator",
		Permissions: []string{service.PermUserManagementRead},
	})
	require.NoError(t, err)

	require.NoError(t, f.roles.EditRole(ctx, service.EditRoleCommand{
		RoleID: role.ID,
		Name:   "mod",
	}))

	got, err := f.roles.GetRoleByID(ctx, role.ID)
	require.NoError(t, err)
	require.Equal(t, "mod", got.Name)
}

func TestEditRoleValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	role, err := f.roles.CreateRole(ctx, service.CreateRoleCommand{Name: "moderator"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		cmd   service.EditRoleCommand
		field string
	}{
		{"missing id", service.EditRoleCommand{Name: "mod"}, "RoleID"},
		{"missing name", service.EditRoleCommand{RoleID: role.ID}, "Name"},
		{"long name", service.EditRoleCommand{RoleID: role.ID, Name: strings.Repeat("n", 101)}, "Name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.roles.EditRole(ctx, tt.cmd)
			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestCreateRoleUnknownPermission(t *testing.T) {
	f := newFixture(t)

	_, err := f.roles.CreateRole(context.Background(), service.CreateRoleCommand{
		Name:        "broken",
		Permissions: []string{"not-a-permission"},
	})
	require.ErrorIs(t, err, service.ErrUnknownPermission)
}

func TestSetPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	role, err := f.roles.CreateRole(ctx, service.CreateRoleCommand{Name: "auditor"})
	require.NoError(t, err)

	require.NoError(t, f.roles.SetPermissions(ctx, role.ID,
		[]string{service.PermUserManagementRead, service.PermRoleManagementRead}))

	got, err := f.roles.GetRoleByID(ctx, role.ID)
	require.NoError(t, err)
	require.ElementsMatch(t,
		[]string{service.PermUserManagementRead, service.PermRoleManagementRead},
		got.Permissions)

	require.ErrorIs(t,
		f.roles.SetPermissions(ctx, role.ID, []string{"nope"}),
		service.ErrUnknownPermission)
	require.ErrorIs(t,
		f.roles.SetPermissions(ctx, role.ID, nil),
		service.ErrUnknownPermission)
}

func TestPermissionLookups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.perms.GetPermissionByID(ctx, service.PermUserManagementDelete)
	require.NoError(t, err)
	require.Equal(t, service.PermUserManagementDelete, p.Code)

	t.Run("all ids valid", func(t *testing.T) {
		ok, err := f.perms.AllIDsValid(ctx, []string{
			service.PermUserManagementRead, service.PermUserManagementReadWrite,
		})
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("one unknown", func(t *testing.T) {
		ok, err := f.perms.AllIDsValid(ctx, []string{
			service.PermUserManagementRead, "ghost",
		})
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("empty input", func(t *testing.T) {
		ok, err := f.perms.AllIDsValid(ctx, nil)
		require.NoError(t, err)
		require.False(t, ok)
	})
}
