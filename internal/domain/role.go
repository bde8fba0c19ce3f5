package domain

import (
	"time"

	"github.com/arkforge/scaffold/pkg/idx"
)

type Role struct {
	ID          idx.ID
	Name        string
	Permissions []string // permission codes, parsed from the join table
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
