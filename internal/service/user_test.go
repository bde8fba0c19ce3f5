package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arkforge/scaffold/internal/service"
	"github.com/arkforge/scaffold/pkg/idx"
)

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.CreateUser(ctx, service.CreateUserCommand{
		Username: "alice",
		Fullname: "Alice Atkins",
		Password: "Sup3rSecret",
	})
	require.NoError(t, err)
	require.Equal(t, "alice", u.Username)
	require.Equal(t, "ALICE", u.NormalizedUsername)
	require.NotEqual(t, "Sup3rSecret", u.PasswordHash)

	got, err := f.users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
}

func TestCreateUserValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		cmd   service.CreateUserCommand
		field string
	}{
		{"short username", service.CreateUserCommand{
			Username: "ali", Fullname: "Alice Atkins", Password: "Sup3rSecret"}, "Username"},
		{"long username", service.CreateUserCommand{
			Username: strings.Repeat("a", 101), Fullname: "Alice Atkins", Password: "Sup3rSecret"}, "Username"},
		{"short fullname", service.CreateUserCommand{
			Username: "alice", Fullname: "Al", Password: "Sup3rSecret"}, "Fullname"},
		{"short password", service.CreateUserCommand{
			Username: "alice", Fullname: "Alice Atkins", Password: "Ab1"}, "Password"},
		{"no uppercase", service.CreateUserCommand{
			Username: "alice", Fullname: "Alice Atkins", Password: "sup3rsecret"}, "Password"},
		{"no digit", service.CreateUserCommand{
			Username: "alice", Fullname: "Alice Atkins", Password: "SuperSecret"}, "Password"},
		{"missing password", service.CreateUserCommand{
			Username: "alice", Fullname: "Alice Atkins"}, "Password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.CreateUser(ctx, tt.cmd)
			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createUser(t, "alice", "Sup3rSecret")

	// Normalization makes the clash case-insensitive.
	_, err := f.users.CreateUser(ctx, service.CreateUserCommand{
		Username: "ALICE",
		Fullname: "Alice Other",
		Password: "Sup3rSecret",
	})
	require.ErrorIs(t, err, service.ErrUsernameTaken)
}

func TestAssignRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.CreateUser(ctx, service.CreateUserCommand{
		Username: "alice", Fullname: "Alice Atkins", Password: "Sup3rSecret",
	})
	require.NoError(t, err)

	role, err := f.roles.CreateRole(ctx, service.CreateRoleCommand{
		Name:        "admin",
		Permissions: []string{service.PermUserManagementRead},
	})
	require.NoError(t, err)

	require.NoError(t, f.users.AssignRoles(ctx, u.ID, []idx.ID{role.ID}))

	got, err := f.users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, []idx.ID{role.ID}, got.RoleIDs)

	require.ErrorIs(t,
		f.users.AssignRoles(ctx, u.ID, []idx.ID{idx.New()}),
		service.ErrUnknownRole)
}
