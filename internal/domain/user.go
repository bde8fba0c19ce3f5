package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/arkforge/scaffold/pkg/idx"
)

type User struct {
	ID                 uuid.UUID
	Username           string
	NormalizedUsername string // upper-cased, unique lookup key
	Fullname           string
	PasswordHash       string // argon2 encoded
	RoleIDs            []idx.ID
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
