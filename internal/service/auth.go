package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/juju/clock"

	"github.com/arkforge/scaffold/internal/domain"
	"github.com/arkforge/scaffold/internal/store"
	"github.com/arkforge/scaffold/pkg/authx"
	"github.com/arkforge/scaffold/pkg/cryptox"
	"github.com/arkforge/scaffold/pkg/idx"
	"github.com/arkforge/scaffold/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
)

const DefaultRefreshTTL = 30 * 24 * time.Hour

type AuthService struct {
	Store      store.Store
	Tokens     *authx.Manager
	Clock      clock.Clock
	Audience   string
	RefreshTTL time.Duration
}

func (s *AuthService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return DefaultRefreshTTL
}

// Login verifies the credentials and issues a token envelope bound to the
// presenting client. The refresh token is opaque; only its fingerprint is
// stored.
func (s *AuthService) Login(ctx context.Context, username, password, deviceType, clientID string) (*authx.Token, error) {
	l := slogx.FromContext(ctx)

	device, err := authx.ParseDeviceType(deviceType)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.Store.Users().GetUserByUsername(ctx, strings.ToUpper(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("login failed, unknown user", slog.String("username", username))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		l.Info("login failed, bad password", slog.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}

	return s.issue(ctx, user, device, clientID)
}

// Refresh rotates the refresh token and reissues the envelope. The stored
// record must be unexpired, unrevoked, and bound to the same client.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, clientID string) (*authx.Token, error) {
	l := slogx.FromContext(ctx)
	now := s.Clock.Now()

	hash := cryptox.FingerprintToken(refreshToken)

	var user domain.User
	var deviceType string
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		record, err := tx.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}
		if record.Revoked || !now.Before(record.ExpiresAt) {
			l.Info("refresh rejected", slog.Bool("revoked", record.Revoked))
			return ErrInvalidRefresh
		}
		if record.ClientID != clientID {
			l.Warn("refresh client mismatch", slog.String("user_id", record.UserID.String()))
			return ErrInvalidRefresh
		}

		deviceType = record.DeviceType
		if user, err = tx.Users().GetUserByID(ctx, record.UserID); err != nil {
			return err
		}
		// Rotation: the presented token is single-use.
		return tx.RefreshTokens().RevokeRefreshToken(ctx, hash)
	})
	if err != nil {
		return nil, err
	}

	device, err := authx.ParseDeviceType(deviceType)
	if err != nil {
		device = authx.DeviceWeb
	}
	return s.issue(ctx, user, device, clientID)
}

// Logout revokes the presented refresh token. Unknown tokens are not an
// error; logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	err := s.Store.RefreshTokens().RevokeRefreshToken(ctx, cryptox.FingerprintToken(refreshToken))
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

func (s *AuthService) issue(ctx context.Context, user domain.User, device authx.DeviceType, clientID string) (*authx.Token, error) {
	roles, permissions, err := s.grants(ctx, user)
	if err != nil {
		return nil, err
	}

	principal := authx.Principal{
		ID:       user.ID,
		Username: user.Username,
		Roles:    roles,
	}

	var extra authx.ClaimMap
	extra.Add("ci", clientID)
	for _, code := range permissions {
		extra.Add("permissions", code)
	}
	claims := authx.GenerateCustomClaims(principal, device, extra)

	refreshRaw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	primaryRole := ""
	if len(roles) > 0 {
		primaryRole = roles[0]
	}

	token, err := s.Tokens.CreateToken(user.ID, refreshRaw, primaryRole, s.Audience, claims)
	if err != nil {
		return nil, err
	}

	err = s.Store.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID:         idx.New(),
		UserID:     user.ID,
		ClientID:   clientID,
		TokenHash:  cryptox.FingerprintToken(refreshRaw),
		DeviceType: device.String(),
		ExpiresAt:  s.Clock.Now().Add(s.refreshTTL()),
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

// grants resolves the user's role names and the union of their permission
// codes, both in stable order.
func (s *AuthService) grants(ctx context.Context, user domain.User) ([]string, []string, error) {
	var roles []string
	var permissions []string
	seen := map[string]struct{}{}

	for _, roleID := range user.RoleIDs {
		role, err := s.Store.Roles().GetRoleByID(ctx, roleID)
		if err != nil {
			return nil, nil, err
		}
		roles = append(roles, role.Name)
		for _, code := range role.Permissions {
			if _, ok := seen[code]; ok {
				continue
			}
			seen[code] = struct{}{}
			permissions = append(permissions, code)
		}
	}
	return roles, permissions, nil
}
