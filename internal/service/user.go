package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/arkforge/scaffold/internal/domain"
	"github.com/arkforge/scaffold/internal/store"
	"github.com/arkforge/scaffold/pkg/cryptox"
	"github.com/arkforge/scaffold/pkg/idx"
)

var (
	ErrUsernameTaken = errors.New("username_taken")
	ErrUnknownRole   = errors.New("unknown_role")
)

type UserService struct {
	Store store.Store
}

type CreateUserCommand struct {
	Username string `validate:"required,min=4,max=100"`
	Fullname string `validate:"required,min=4,max=100"`
	Password string `validate:"required,password"`
}

// CreateUser validates the command, hashes the password, and inserts the
// user. The username is normalized (upper-cased) for uniqueness.
func (s *UserService) CreateUser(ctx context.Context, cmd CreateUserCommand) (domain.User, error) {
	if err := checkCommand(cmd); err != nil {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(cmd.Password)
	if err != nil {
		return domain.User{}, err
	}

	u := domain.User{
		ID:                 uuid.New(),
		Username:           cmd.Username,
		NormalizedUsername: strings.ToUpper(cmd.Username),
		Fullname:           cmd.Fullname,
		PasswordHash:       hash,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUsernameTaken
		}
		return domain.User{}, err
	}
	return u, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.Store.Users().ListUsers(ctx)
}

// UpdateFullname changes the display name only; usernames are immutable.
func (s *UserService) UpdateFullname(ctx context.Context, userID uuid.UUID, fullname string) error {
	fullname = strings.TrimSpace(fullname)
	if n := len(fullname); n < 4 || n > 100 {
		return &ValidationError{Fields: map[string]string{
			"Fullname": "must be between 4 and 100 characters",
		}}
	}
	return s.Store.Users().UpdateFullname(ctx, userID, fullname)
}

// AssignRoles replaces the user's role assignments after checking every
// role exists.
func (s *UserService) AssignRoles(ctx context.Context, userID uuid.UUID, roleIDs []idx.ID) error {
	for _, roleID := range roleIDs {
		if _, err := s.Store.Roles().GetRoleByID(ctx, roleID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUnknownRole
			}
			return err
		}
	}
	return s.Store.Users().SetUserRoles(ctx, userID, roleIDs)
}

func (s *UserService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return s.Store.Users().DeleteUser(ctx, userID)
}
