package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/arkforge/scaffold/internal/domain"
	"github.com/arkforge/scaffold/internal/store"
	"github.com/arkforge/scaffold/pkg/idx"
)

type rolesRepo struct {
	db dbtx
}

func (r *rolesRepo) scanRole(row interface{ Scan(...any) error }) (domain.Role, error) {
	var role domain.Role
	var id string
	err := row.Scan(&id, &role.Name, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	role.ID = idx.ID(id)
	return role, nil
}

func (r *rolesRepo) GetRoleByID(ctx context.Context, id idx.ID) (domain.Role, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM roles WHERE id = ?`, id.String())
	role, err := r.scanRole(row)
	if err != nil {
		return domain.Role{}, err
	}
	if role.Permissions, err = r.permissions(ctx, role.ID); err != nil {
		return domain.Role{}, err
	}
	return role, nil
}

func (r *rolesRepo) GetRoleByName(ctx context.Context, name string) (domain.Role, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM roles WHERE name = ?`, name)
	role, err := r.scanRole(row)
	if err != nil {
		return domain.Role{}, err
	}
	if role.Permissions, err = r.permissions(ctx, role.ID); err != nil {
		return domain.Role{}, err
	}
	return role, nil
}

func (r *rolesRepo) ListAll(ctx context.Context) ([]domain.Role, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		role, err := r.scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range roles {
		if roles[i].Permissions, err = r.permissions(ctx, roles[i].ID); err != nil {
			return nil, err
		}
	}
	return roles, nil
}

func (r *rolesRepo) CreateRole(ctx context.Context, role domain.Role) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO roles (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		role.ID.String(), role.Name, now, now)
	if err != nil {
		return mapConstraint(err)
	}
	return r.SetRolePermissions(ctx, role.ID, role.Permissions)
}

func (r *rolesRepo) RenameRole(ctx context.Context, roleID idx.ID, name string) error {
	return r.mustAffect(r.db.ExecContext(ctx,
		`UPDATE roles SET name = ?, updated_at = ? WHERE id = ?`,
		name, time.Now().UTC(), roleID.String()))
}

func (r *rolesRepo) SetRolePermissions(ctx context.Context, roleID idx.ID, codes []string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM role_permissions WHERE role_id = ?`, roleID.String()); err != nil {
		return err
	}
	for _, code := range codes {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO role_permissions (role_id, permission_code) VALUES (?, ?)`,
			roleID.String(), code); err != nil {
			return mapConstraint(err)
		}
	}
	return nil
}

func (r *rolesRepo) DeleteRole(ctx context.Context, roleID idx.ID) error {
	// RESTRICT on user_roles surfaces as a constraint error while the role
	// is still assigned.
	return r.mustAffect(r.db.ExecContext(ctx,
		`DELETE FROM roles WHERE id = ?`, roleID.String()))
}

func (r *rolesRepo) IsEmpty(ctx context.Context) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM roles`).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}

func (r *rolesRepo) permissions(ctx context.Context, roleID idx.ID) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT permission_code FROM role_permissions WHERE role_id = ? ORDER BY permission_code`,
		roleID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (r *rolesRepo) mustAffect(res sql.Result, err error) error {
	if err != nil {
		return mapConstraint(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
