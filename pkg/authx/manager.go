package authx

import (
	"strconv"
	"strings"
	"time"

	"github.com/arkforge/scaffold/pkg/jwtx"
	"github.com/google/uuid"
	"github.com/juju/clock"
)

// DefaultExpiry is used when Options.Expiry is left zero.
const DefaultExpiry = 15 * time.Minute

// Options is the token service configuration, read once at startup and
// immutable for the process lifetime.
type Options struct {
	// IssuerSigningKey is the symmetric HS256 secret. Required.
	IssuerSigningKey string
	// Issuer is the iss claim stamped into every token. Optional.
	Issuer string
	// Expiry is the access token lifetime.
	Expiry time.Duration
}

// Token is the issuance envelope: the signed access token plus its
// out-of-band metadata. It is created once per CreateToken call and never
// mutated afterwards.
type Token struct {
	AccessToken  string    `json:"accessToken"`
	Expiry       int64     `json:"expiry"` // epoch milliseconds
	RefreshToken string    `json:"refreshToken"`
	UserID       uuid.UUID `json:"userId"`
	Claims       ClaimMap  `json:"claims"` // caller-supplied claims echoed verbatim
}

// Manager is the token service. It orchestrates the clock, claims assembly
// and the signer; it is stateless per call and safe for concurrent use.
type Manager struct {
	opts   Options
	clk    clock.Clock
	signer *jwtx.Signer
}

// NewManager builds the token service. A blank signing key refuses
// construction, the service must not come up without signing material.
func NewManager(opts Options, clk clock.Clock) (*Manager, error) {
	signer, err := jwtx.NewSigner(opts.IssuerSigningKey, opts.Issuer)
	if err != nil {
		return nil, err
	}
	if opts.Expiry <= 0 {
		opts.Expiry = DefaultExpiry
	}
	if clk == nil {
		clk = clock.WallClock
	}
	return &Manager{opts: opts, clk: clk, signer: signer}, nil
}

// CreateToken issues a signed access token for userID and wraps it in an
// envelope. refreshToken is an opaque value minted by the caller and is
// passed through untouched. Blank role and audience are omitted from the
// claim set entirely. The envelope's claim mapping echoes only the
// caller-supplied claims, never the built-in ones.
func (m *Manager) CreateToken(userID uuid.UUID, refreshToken, role, audience string, claims ClaimMap) (*Token, error) {
	now := m.clk.Now()

	var set jwtx.ClaimSet
	set.Add("sub", userID.String())
	set.Add("unique_name", userID.String())
	set.Add("jti", uuid.NewString())
	// iat is epoch milliseconds, not seconds. Wire compatibility.
	set.Add("iat", strconv.FormatInt(now.UnixMilli(), 10))

	if strings.TrimSpace(role) != "" {
		set.Add("role", role)
	}
	if strings.TrimSpace(audience) != "" {
		set.Add("aud", audience)
	}
	claims.ExpandInto(&set)

	expires := now.Add(m.opts.Expiry)
	access, err := m.signer.Sign(set, now, expires)
	if err != nil {
		return nil, err
	}

	token := &Token{
		AccessToken:  access,
		Expiry:       expires.UnixMilli(),
		RefreshToken: refreshToken,
		UserID:       userID,
		Claims:       ClaimMap{},
	}
	token.Claims = append(token.Claims, claims...)
	return token, nil
}
