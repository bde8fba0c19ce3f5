package sqlite

import (
	"context"

	"github.com/arkforge/scaffold/internal/domain"
)

type permissionsRepo struct {
	db dbtx
}

func (r *permissionsRepo) GetPermissionByCode(ctx context.Context, code string) (domain.Permission, error) {
	var p domain.Permission
	err := r.db.QueryRowContext(ctx,
		`SELECT code, name, description FROM permissions WHERE code = ?`, code).
		Scan(&p.Code, &p.Name, &p.Description)
	if err != nil {
		return domain.Permission{}, mapNotFound(err)
	}
	return p, nil
}

func (r *permissionsRepo) ListAll(ctx context.Context) ([]domain.Permission, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT code, name, description FROM permissions ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []domain.Permission
	for rows.Next() {
		var p domain.Permission
		if err := rows.Scan(&p.Code, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (r *permissionsRepo) CountByCodes(ctx context.Context, codes []string) (int, error) {
	if len(codes) == 0 {
		return 0, nil
	}
	args := make([]any, len(codes))
	for i, c := range codes {
		args[i] = c
	}
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM permissions WHERE code IN (`+placeholders(len(codes))+`)`,
		args...).Scan(&n)
	return n, err
}
