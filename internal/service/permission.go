package service

import (
	"context"

	"github.com/arkforge/scaffold/internal/domain"
	"github.com/arkforge/scaffold/internal/store"
)

// Permission codes. The codes double as authorization policy names, so
// granting a permission to a role grants the matching policy.
const (
	PermUserManagementRead      = "user-management.read"
	PermUserManagementReadWrite = "user-management.readwrite"
	PermUserManagementDelete    = "user-management.delete"

	PermRoleManagementRead      = "role-management.read"
	PermRoleManagementReadWrite = "role-management.readwrite"
	PermRoleManagementDelete    = "role-management.delete"
)

type PermissionService struct {
	Store store.Store
}

// GetPermissionByID fetches a permission by its code.
func (s *PermissionService) GetPermissionByID(ctx context.Context, code string) (domain.Permission, error) {
	return s.Store.Permissions().GetPermissionByCode(ctx, code)
}

// ListAll returns every seeded permission.
func (s *PermissionService) ListAll(ctx context.Context) ([]domain.Permission, error) {
	return s.Store.Permissions().ListAll(ctx)
}

// AllIDsValid reports whether every given code names an existing
// permission. An empty lookup result is invalid, so an empty input is
// invalid too.
func (s *PermissionService) AllIDsValid(ctx context.Context, codes []string) (bool, error) {
	n, err := s.Store.Permissions().CountByCodes(ctx, codes)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	return n == len(codes), nil
}
