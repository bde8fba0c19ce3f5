package jwtx

import (
	"errors"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/juju/clock"
)

// Reason tags for validation failures. Each enabled check fails with its own
// tag so callers (and logs) can tell which policy predicate rejected the
// token.
var (
	ErrMalformed       = errors.New("jwtx: malformed token")
	ErrAlgMismatch     = errors.New("jwtx: algorithm mismatch")
	ErrSignature       = errors.New("jwtx: invalid signature")
	ErrUnsignedToken   = errors.New("jwtx: unsigned token rejected")
	ErrIssuer          = errors.New("jwtx: issuer mismatch")
	ErrAudience        = errors.New("jwtx: audience mismatch")
	ErrAudienceMissing = errors.New("jwtx: audience required")
	ErrExpired         = errors.New("jwtx: token expired")
	ErrNotYetValid     = errors.New("jwtx: token not yet valid")
	ErrExpiryMissing   = errors.New("jwtx: expiration time required")
	ErrReplay          = errors.New("jwtx: replay protection requires jti and exp")
	ErrActor           = errors.New("jwtx: actor token rejected")
)

// minSigningKeyBytes is the smallest key ValidateIssuerSigningKey accepts
// for HMAC-SHA256.
const minSigningKeyBytes = 16

// PolicyConfig enumerates the recognized validation options. Every check is
// independently togglable; a zero-value config performs signature
// verification only.
type PolicyConfig struct {
	IssuerSigningKey string

	ValidIssuer    string
	ValidIssuers   []string
	ValidAudience  string
	ValidAudiences []string

	ValidateIssuer           bool
	ValidateAudience         bool
	RequireAudience          bool
	ValidateLifetime         bool
	ValidateTokenReplay      bool
	ValidateActor            bool
	ValidateIssuerSigningKey bool
	RequireExpirationTime    bool
	RequireSignedTokens      bool
}

// Policy applies a configured set of checks to incoming tokens. It is
// immutable after construction and safe for concurrent use. Lifetime checks
// use zero clock-skew leeway.
type Policy struct {
	cfg PolicyConfig
	key []byte
	clk clock.Clock
}

// NewPolicy validates the configuration once, at startup. A blank signing
// key, or a too-short key when ValidateIssuerSigningKey is set, refuses
// construction rather than failing per request.
func NewPolicy(cfg PolicyConfig, clk clock.Clock) (*Policy, error) {
	if strings.TrimSpace(cfg.IssuerSigningKey) == "" {
		return nil, ErrMissingSigningKey
	}
	key := []byte(cfg.IssuerSigningKey)
	if cfg.ValidateIssuerSigningKey && len(key) < minSigningKeyBytes {
		return nil, errors.New("jwtx: issuer signing key below minimum length")
	}
	if clk == nil {
		clk = clock.WallClock
	}
	return &Policy{cfg: cfg, key: key, clk: clk}, nil
}

// Validate parses raw and runs every enabled check against it. On success
// the recovered claim set is returned; on failure the error wraps the
// reason tag of the check that rejected the token.
func (p *Policy) Validate(raw string) (ClaimSet, error) {
	var set ClaimSet

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	_, err := parser.ParseWithClaims(raw, &set, p.keyfunc)
	if err != nil {
		return ClaimSet{}, p.mapParseError(err)
	}

	if err := p.checkIssuer(&set); err != nil {
		return ClaimSet{}, err
	}
	if err := p.checkAudience(&set); err != nil {
		return ClaimSet{}, err
	}
	if err := p.checkLifetime(&set); err != nil {
		return ClaimSet{}, err
	}
	if err := p.checkReplay(&set); err != nil {
		return ClaimSet{}, err
	}
	if err := p.checkActor(&set); err != nil {
		return ClaimSet{}, err
	}

	return set, nil
}

func (p *Policy) keyfunc(t *jwt.Token) (any, error) {
	switch t.Method.Alg() {
	case jwt.SigningMethodHS256.Alg():
		return p.key, nil
	case jwt.SigningMethodNone.Alg():
		if p.cfg.RequireSignedTokens {
			return nil, ErrUnsignedToken
		}
		return jwt.UnsafeAllowNoneSignatureType, nil
	default:
		return nil, ErrAlgMismatch
	}
}

func (p *Policy) mapParseError(err error) error {
	switch {
	case errors.Is(err, ErrUnsignedToken) || errors.Is(err, ErrAlgMismatch):
		return err
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	default:
		return errors.Join(ErrMalformed, err)
	}
}

func (p *Policy) checkIssuer(set *ClaimSet) error {
	if !p.cfg.ValidateIssuer {
		return nil
	}
	iss, _ := set.First("iss")
	if p.cfg.ValidIssuer != "" && iss == p.cfg.ValidIssuer {
		return nil
	}
	if slices.Contains(p.cfg.ValidIssuers, iss) {
		return nil
	}
	return ErrIssuer
}

func (p *Policy) checkAudience(set *ClaimSet) error {
	if !p.cfg.ValidateAudience {
		return nil
	}

	audiences := set.Values("aud")
	if len(audiences) == 0 {
		if p.cfg.RequireAudience {
			return ErrAudienceMissing
		}
		return nil
	}

	accepted := p.cfg.ValidAudiences
	if p.cfg.ValidAudience != "" {
		accepted = append([]string{p.cfg.ValidAudience}, accepted...)
	}
	for _, aud := range audiences {
		if slices.Contains(accepted, aud) {
			return nil
		}
	}
	return ErrAudience
}

// checkLifetime enforces nbf <= now < exp with zero leeway. A token is
// invalid the instant its expiry is reached.
func (p *Policy) checkLifetime(set *ClaimSet) error {
	exp, err := set.numericTime("exp")
	if err != nil {
		return errors.Join(ErrMalformed, err)
	}
	if exp == nil && p.cfg.RequireExpirationTime {
		return ErrExpiryMissing
	}
	if !p.cfg.ValidateLifetime {
		return nil
	}

	now := p.clk.Now()
	if exp != nil && !now.Before(exp.Time) {
		return ErrExpired
	}

	nbf, err := set.numericTime("nbf")
	if err != nil {
		return errors.Join(ErrMalformed, err)
	}
	if nbf != nil && now.Before(nbf.Time) {
		return ErrNotYetValid
	}
	return nil
}

// checkReplay is the stateless part of replay protection: there is no
// replay cache, so the most it can require is that the token carries a jti
// to distinguish it and an expiry to bound it.
func (p *Policy) checkReplay(set *ClaimSet) error {
	if !p.cfg.ValidateTokenReplay {
		return nil
	}
	jti, _ := set.First("jti")
	if strings.TrimSpace(jti) == "" || !set.Has("exp") {
		return ErrReplay
	}
	return nil
}

// checkActor rejects tokens carrying an actor claim, since nothing in this
// system issues or can verify nested actor tokens.
func (p *Policy) checkActor(set *ClaimSet) error {
	if !p.cfg.ValidateActor {
		return nil
	}
	if set.Has("actort") {
		return ErrActor
	}
	return nil
}
