package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "scaffold", cfg.Auth.Issuer)
	require.Equal(t, 15*time.Minute, cfg.Auth.Expiry)
	require.Equal(t, 30*24*time.Hour, cfg.Auth.RefreshTTL)
	require.Equal(t, "__access-token", cfg.Auth.CookieName)
	require.Equal(t, "x-client-id", cfg.Auth.ClientIDHeader)
	require.Equal(t, "Bearer", cfg.Auth.Challenge)
	require.Len(t, cfg.Auth.Policies, 6)
	require.Contains(t, cfg.Auth.Policies, "role-management.delete")

	require.True(t, cfg.Auth.ValidateIssuer)
	require.True(t, cfg.Auth.ValidateLifetime)
	require.True(t, cfg.Auth.RequireExpirationTime)
	require.True(t, cfg.Auth.RequireSignedTokens)
	require.True(t, cfg.Auth.SaveToken)

	require.False(t, cfg.Auth.Disabled)
	require.False(t, cfg.Auth.ValidateAudience)
	require.False(t, cfg.Auth.ValidateTokenReplay)
	require.False(t, cfg.Auth.ValidateActor)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("AUTH_ISSUER_SIGNING_KEY", "a-signing-key-0123456789abcdefgh")
	t.Setenv("AUTH_EXPIRY", "5m")
	t.Setenv("AUTH_DISABLED", "true")
	t.Setenv("AUTH_VALIDATE_LIFETIME", "false")
	t.Setenv("AUTH_VALID_ISSUERS", "one,two")
	t.Setenv("AUTH_COOKIE_NAME", "session")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, "a-signing-key-0123456789abcdefgh", cfg.Auth.IssuerSigningKey)
	require.Equal(t, 5*time.Minute, cfg.Auth.Expiry)
	require.True(t, cfg.Auth.Disabled)
	require.False(t, cfg.Auth.ValidateLifetime)
	require.Equal(t, []string{"one", "two"}, cfg.Auth.ValidIssuers)
	require.Equal(t, "session", cfg.Auth.CookieName)
}
