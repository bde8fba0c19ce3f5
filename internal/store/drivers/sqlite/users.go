package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/arkforge/scaffold/internal/domain"
	"github.com/arkforge/scaffold/internal/store"
	"github.com/arkforge/scaffold/pkg/idx"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, username, normalized_username, fullname, password_hash, created_at, updated_at`

func (r *usersRepo) scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	var id string
	err := row.Scan(&id, &u.Username, &u.NormalizedUsername, &u.Fullname,
		&u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	if u.ID, err = uuid.Parse(id); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id.String())
	u, err := r.scanUser(row)
	if err != nil {
		return domain.User{}, err
	}
	if u.RoleIDs, err = r.roleIDs(ctx, id); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, normalized string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE normalized_username = ?`, normalized)
	u, err := r.scanUser(row)
	if err != nil {
		return domain.User{}, err
	}
	if u.RoleIDs, err = r.roleIDs(ctx, u.ID); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].RoleIDs, err = r.roleIDs(ctx, users[i].ID); err != nil {
			return nil, err
		}
	}
	return users, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, normalized_username, fullname, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID.String(), u.Username, u.NormalizedUsername, u.Fullname,
		u.PasswordHash, now, now)
	if err != nil {
		return mapConstraint(err)
	}
	return r.SetUserRoles(ctx, u.ID, u.RoleIDs)
}

func (r *usersRepo) UpdateFullname(ctx context.Context, userID uuid.UUID, fullname string) error {
	return r.mustAffect(r.db.ExecContext(ctx,
		`UPDATE users SET fullname = ?, updated_at = ? WHERE id = ?`,
		fullname, time.Now().UTC(), userID.String()))
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID uuid.UUID, newHash string) error {
	return r.mustAffect(r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, time.Now().UTC(), userID.String()))
}

func (r *usersRepo) SetUserRoles(ctx context.Context, userID uuid.UUID, roleIDs []idx.ID) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM user_roles WHERE user_id = ?`, userID.String()); err != nil {
		return err
	}
	for _, roleID := range roleIDs {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)`,
			userID.String(), roleID.String()); err != nil {
			return mapConstraint(err)
		}
	}
	return nil
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return r.mustAffect(r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = ?`, userID.String()))
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}

func (r *usersRepo) roleIDs(ctx context.Context, userID uuid.UUID) ([]idx.ID, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT role_id FROM user_roles WHERE user_id = ? ORDER BY role_id`,
		userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []idx.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, idx.ID(id))
	}
	return ids, rows.Err()
}

func (r *usersRepo) mustAffect(res sql.Result, err error) error {
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
