package authx_test

import (
	"strconv"
	"testing"
	"time"

	"github.com/arkforge/scaffold/pkg/authx"
	"github.com/arkforge/scaffold/pkg/jwtx"
	"github.com/google/uuid"
	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/require"
)

const testKey = "manager-test-key-0123456789abcdef"

func newManager(t *testing.T, now time.Time, expiry time.Duration) *authx.Manager {
	t.Helper()
	m, err := authx.NewManager(authx.Options{
		IssuerSigningKey: testKey,
		Issuer:           "scaffold",
		Expiry:           expiry,
	}, testclock.NewClock(now))
	require.NoError(t, err)
	return m
}

func decode(t *testing.T, now time.Time, raw string) jwtx.ClaimSet {
	t.Helper()
	policy, err := jwtx.NewPolicy(jwtx.PolicyConfig{
		IssuerSigningKey: testKey,
		ValidateIssuer:   true,
		ValidIssuer:      "scaffold",
		ValidateLifetime: true,
	}, testclock.NewClock(now))
	require.NoError(t, err)
	claims, err := policy.Validate(raw)
	require.NoError(t, err)
	return claims
}

func TestNewManagerRequiresSigningKey(t *testing.T) {
	t.Parallel()

	_, err := authx.NewManager(authx.Options{}, nil)
	require.ErrorIs(t, err, jwtx.ErrMissingSigningKey)

	_, err = authx.NewManager(authx.Options{IssuerSigningKey: "  "}, nil)
	require.ErrorIs(t, err, jwtx.ErrMissingSigningKey)
}

func TestCreateTokenEnvelope(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	userID := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	m := newManager(t, now, 15*time.Minute)
	token, err := m.CreateToken(userID, "r1", "admin", "", nil)
	require.NoError(t, err)

	require.NotEmpty(t, token.AccessToken)
	require.Equal(t, now.Add(15*time.Minute).UnixMilli(), token.Expiry)
	require.Equal(t, "r1", token.RefreshToken)
	require.Equal(t, userID, token.UserID)
	// Built-in claims are not echoed; nil extra claims echo as empty.
	require.NotNil(t, token.Claims)
	require.Empty(t, token.Claims)
}

func TestCreateTokenClaims(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	userID := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	m := newManager(t, now, 15*time.Minute)

	t.Run("base claims present, iat in milliseconds", func(t *testing.T) {
		token, err := m.CreateToken(userID, "r1", "", "", nil)
		require.NoError(t, err)

		claims := decode(t, now, token.AccessToken)
		sub, _ := claims.First("sub")
		require.Equal(t, userID.String(), sub)
		un, _ := claims.First("unique_name")
		require.Equal(t, userID.String(), un)
		jti, ok := claims.First("jti")
		require.True(t, ok)
		require.NotEmpty(t, jti)

		iat, ok := claims.First("iat")
		require.True(t, ok)
		require.Equal(t, strconv.FormatInt(now.UnixMilli(), 10), iat)

		require.False(t, claims.Has("role"))
		require.False(t, claims.Has("aud"))
	})

	t.Run("jti differs per issuance", func(t *testing.T) {
		a, err := m.CreateToken(userID, "r1", "", "", nil)
		require.NoError(t, err)
		b, err := m.CreateToken(userID, "r1", "", "", nil)
		require.NoError(t, err)

		ca := decode(t, now, a.AccessToken)
		cb := decode(t, now, b.AccessToken)
		ja, _ := ca.First("jti")
		jb, _ := cb.First("jti")
		require.NotEqual(t, ja, jb)
	})

	t.Run("role and audience emitted when non-blank", func(t *testing.T) {
		token, err := m.CreateToken(userID, "r1", "admin", "web-app", nil)
		require.NoError(t, err)

		claims := decode(t, now, token.AccessToken)
		require.Equal(t, []string{"admin"}, claims.Values("role"))
		require.Equal(t, []string{"web-app"}, claims.Values("aud"))
	})

	t.Run("whitespace role treated as absent", func(t *testing.T) {
		token, err := m.CreateToken(userID, "r1", "   ", "", nil)
		require.NoError(t, err)
		claims := decode(t, now, token.AccessToken)
		require.False(t, claims.Has("role"))
	})
}

func TestCreateTokenExtraClaims(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	userID := uuid.New()
	m := newManager(t, now, 15*time.Minute)

	extra := authx.ClaimMap{}
	extra.Add("ci", "client-a")
	extra.Add("permissions", "user-management.read", "user-management.readwrite")
	extra.Add("deviceType", "web")

	token, err := m.CreateToken(userID, "r1", "", "", extra)
	require.NoError(t, err)

	claims := decode(t, now, token.AccessToken)

	t.Run("each value becomes one entry, order preserved", func(t *testing.T) {
		require.Equal(t, []string{"client-a"}, claims.Values("ci"))
		require.Equal(t,
			[]string{"user-management.read", "user-management.readwrite"},
			claims.Values("permissions"))
		require.Equal(t, []string{"web"}, claims.Values("deviceType"))
	})

	t.Run("entry count matches sum of value counts", func(t *testing.T) {
		total := 0
		for _, e := range extra {
			total += len(e.Values)
		}
		custom := 0
		for _, c := range claims.Entries() {
			switch c.Name {
			case "ci", "permissions", "deviceType":
				custom++
			}
		}
		require.Equal(t, total, custom)
	})

	t.Run("extra claims echoed verbatim in envelope", func(t *testing.T) {
		require.Equal(t, extra, token.Claims)
	})
}

func TestCreateTokenRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	userID := uuid.New()
	m := newManager(t, now, time.Hour)

	token, err := m.CreateToken(userID, "refresh-opaque", "member", "web-app", nil)
	require.NoError(t, err)

	// issue() then validate() recovers the same subject.
	claims := decode(t, now.Add(30*time.Minute), token.AccessToken)
	sub, _ := claims.First("sub")
	require.Equal(t, userID.String(), sub)

	// And the token is rejected once its lifetime has run out.
	policy, err := jwtx.NewPolicy(jwtx.PolicyConfig{
		IssuerSigningKey: testKey,
		ValidateLifetime: true,
	}, testclock.NewClock(now.Add(2*time.Hour)))
	require.NoError(t, err)
	_, err = policy.Validate(token.AccessToken)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}
