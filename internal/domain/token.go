package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/arkforge/scaffold/pkg/idx"
)

// RefreshToken models a stored refresh token record. Only the SHA-256
// fingerprint of the opaque token is persisted.
type RefreshToken struct {
	ID         idx.ID
	UserID     uuid.UUID
	ClientID   string
	TokenHash  string
	DeviceType string
	ExpiresAt  time.Time
	Revoked    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
