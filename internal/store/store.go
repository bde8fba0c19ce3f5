package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/arkforge/scaffold/internal/domain"
	"github.com/arkforge/scaffold/pkg/idx"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement it.
// Sub-repositories are exposed as methods so transactional and plain access
// share the same surface.
type Store interface {
	Users() Users
	Roles() Roles
	Permissions() Permissions
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction: rollback when fn errors,
	// commit otherwise. Preferred over Tx for multi-step operations that
	// must be atomic (e.g. refresh token rotation).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store with Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (domain.User, error)

	// GetUserByUsername looks up by the normalized (upper-cased) username.
	GetUserByUsername(ctx context.Context, normalized string) (domain.User, error)

	ListUsers(ctx context.Context) ([]domain.User, error)

	CreateUser(ctx context.Context, u domain.User) error

	UpdateFullname(ctx context.Context, userID uuid.UUID, fullname string) error

	UpdatePasswordHash(ctx context.Context, userID uuid.UUID, newHash string) error

	// SetUserRoles replaces the user's role assignments.
	SetUserRoles(ctx context.Context, userID uuid.UUID, roleIDs []idx.ID) error

	// DeleteUser cascades to user_roles and refresh_tokens (per schema).
	DeleteUser(ctx context.Context, userID uuid.UUID) error

	IsEmpty(ctx context.Context) (bool, error)
}

type Roles interface {
	GetRoleByID(ctx context.Context, id idx.ID) (domain.Role, error)

	GetRoleByName(ctx context.Context, name string) (domain.Role, error)

	ListAll(ctx context.Context) ([]domain.Role, error)

	CreateRole(ctx context.Context, r domain.Role) error

	// RenameRole sets the role name and bumps updated_at.
	RenameRole(ctx context.Context, roleID idx.ID, name string) error

	// SetRolePermissions replaces the role's permission grants.
	SetRolePermissions(ctx context.Context, roleID idx.ID, codes []string) error

	// DeleteRole fails while users still reference the role.
	DeleteRole(ctx context.Context, roleID idx.ID) error

	IsEmpty(ctx context.Context) (bool, error)
}

type Permissions interface {
	GetPermissionByCode(ctx context.Context, code string) (domain.Permission, error)

	ListAll(ctx context.Context) ([]domain.Permission, error)

	// CountByCodes returns how many of the given codes exist. Used for
	// validating permission selections in one query.
	CountByCodes(ctx context.Context, codes []string) (int, error)
}

type RefreshTokens interface {
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the record by the token's SHA-256
	// fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RevokeRefreshToken flips revoked=1, sets updated_at.
	RevokeRefreshToken(ctx context.Context, hash string) error

	// RevokeAllUserClientRefreshTokens bulk revocation for a user+client
	// pair (e.g. password reset).
	RevokeAllUserClientRefreshTokens(ctx context.Context, userID uuid.UUID, clientID string) error

	// DeleteExpiredRefreshTokens is housekeeping.
	DeleteExpiredRefreshTokens(ctx context.Context) error
}
