package service

import (
	"context"
	"errors"

	"github.com/arkforge/scaffold/internal/domain"
	"github.com/arkforge/scaffold/internal/store"
	"github.com/arkforge/scaffold/pkg/idx"
)

var (
	ErrRoleNameTaken     = errors.New("role_name_taken")
	ErrUnknownPermission = errors.New("unknown_permission")
)

type RoleService struct {
	Store       store.Store
	Permissions *PermissionService
}

type CreateRoleCommand struct {
	Name        string   `validate:"required,max=100"`
	Permissions []string `validate:"omitempty,dive,required"`
}

type EditRoleCommand struct {
	RoleID idx.ID `validate:"required"`
	Name   string `validate:"required,max=100"`
}

// CreateRole inserts a role, rejecting unknown permission codes.
func (s *RoleService) CreateRole(ctx context.Context, cmd CreateRoleCommand) (domain.Role, error) {
	if err := checkCommand(cmd); err != nil {
		return domain.Role{}, err
	}
	if len(cmd.Permissions) > 0 {
		ok, err := s.Permissions.AllIDsValid(ctx, cmd.Permissions)
		if err != nil {
			return domain.Role{}, err
		}
		if !ok {
			return domain.Role{}, ErrUnknownPermission
		}
	}

	role := domain.Role{
		ID:          idx.New(),
		Name:        cmd.Name,
		Permissions: cmd.Permissions,
	}
	if err := s.Store.Roles().CreateRole(ctx, role); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Role{}, ErrRoleNameTaken
		}
		return domain.Role{}, err
	}
	return role, nil
}

// EditRole renames an existing role.
func (s *RoleService) EditRole(ctx context.Context, cmd EditRoleCommand) error {
	if err := checkCommand(cmd); err != nil {
		return err
	}
	if err := s.Store.Roles().RenameRole(ctx, cmd.RoleID, cmd.Name); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return ErrRoleNameTaken
		}
		return err
	}
	return nil
}

// SetPermissions replaces a role's grants after validating every code.
func (s *RoleService) SetPermissions(ctx context.Context, roleID idx.ID, codes []string) error {
	ok, err := s.Permissions.AllIDsValid(ctx, codes)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownPermission
	}
	return s.Store.Roles().SetRolePermissions(ctx, roleID, codes)
}

func (s *RoleService) GetRoleByID(ctx context.Context, roleID idx.ID) (domain.Role, error) {
	return s.Store.Roles().GetRoleByID(ctx, roleID)
}

func (s *RoleService) ListAll(ctx context.Context) ([]domain.Role, error) {
	return s.Store.Roles().ListAll(ctx)
}

func (s *RoleService) DeleteRole(ctx context.Context, roleID idx.ID) error {
	return s.Store.Roles().DeleteRole(ctx, roleID)
}
