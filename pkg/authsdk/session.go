package authsdk

import (
	"context"
	"net/http"
	"time"
)

// Session is an authenticated view of the service. It carries the access
// and refresh tokens from a login or refresh exchange.
type Session struct {
	client   *Client
	envelope TokenEnvelope
}

func newSession(c *Client, envelope TokenEnvelope) *Session {
	return &Session{client: c, envelope: envelope}
}

// AccessToken returns the bearer token for the session.
func (s *Session) AccessToken() string { return s.envelope.AccessToken }

// RefreshToken returns the opaque token used to renew the session.
func (s *Session) RefreshToken() string { return s.envelope.RefreshToken }

// UserID returns the authenticated user's id.
func (s *Session) UserID() string { return s.envelope.UserID }

// ExpiresAt returns when the access token expires.
func (s *Session) ExpiresAt() time.Time {
	return time.UnixMilli(s.envelope.Expiry)
}

// Claim returns the values of a claim issued with the token, or nil when
// the claim is absent.
func (s *Session) Claim(name string) []string {
	return s.envelope.Claims[name]
}

// Renew exchanges the session's refresh token for a new token pair. The old
// refresh token is revoked server-side, so the session updates in place.
func (s *Session) Renew(ctx context.Context) error {
	var envelope TokenEnvelope
	err := s.client.do(ctx, http.MethodPost, "/v1/auth/refresh",
		refreshRequest{RefreshToken: s.envelope.RefreshToken}, "", &envelope)
	if err != nil {
		return err
	}
	s.envelope = envelope
	return nil
}

// Logout revokes the refresh token and ends the session.
func (s *Session) Logout(ctx context.Context) error {
	return s.client.do(ctx, http.MethodPost, "/v1/auth/logout",
		refreshRequest{RefreshToken: s.envelope.RefreshToken},
		s.envelope.AccessToken, nil)
}

// ListUsers returns all user accounts. Requires the user-management.read
// permission.
func (s *Session) ListUsers(ctx context.Context) ([]UserInfo, error) {
	var out listUsersResponse
	err := s.client.do(ctx, http.MethodGet, "/v1/users", nil,
		s.envelope.AccessToken, &out)
	if err != nil {
		return nil, err
	}
	return out.Users, nil
}

// GetUser returns a single user account by id.
func (s *Session) GetUser(ctx context.Context, id string) (*UserInfo, error) {
	var out UserInfo
	err := s.client.do(ctx, http.MethodGet, "/v1/users/"+id, nil,
		s.envelope.AccessToken, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateUser creates a new user account. Requires the
// user-management.readwrite permission.
func (s *Session) CreateUser(ctx context.Context, req CreateUserRequest) (*UserInfo, error) {
	var out UserInfo
	err := s.client.do(ctx, http.MethodPost, "/v1/users", req,
		s.envelope.AccessToken, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUser removes a user account. Requires the user-management.delete
// permission.
func (s *Session) DeleteUser(ctx context.Context, id string) error {
	return s.client.do(ctx, http.MethodDelete, "/v1/users/"+id, nil,
		s.envelope.AccessToken, nil)
}

// ListRoles returns all roles. Requires the role-management.read
// permission.
func (s *Session) ListRoles(ctx context.Context) ([]RoleInfo, error) {
	var out listRolesResponse
	err := s.client.do(ctx, http.MethodGet, "/v1/roles", nil,
		s.envelope.AccessToken, &out)
	if err != nil {
		return nil, err
	}
	return out.Roles, nil
}
