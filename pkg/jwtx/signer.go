package jwtx

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingSigningKey is returned at construction when no usable signing
// key is supplied. Token components refuse to be built without one.
var ErrMissingSigningKey = errors.New("jwtx: missing signing key")

// Signer produces compact HS256 tokens over a claim set using a single
// process-wide symmetric key. The key is fixed at construction; rotation is
// not supported in this design.
type Signer struct {
	key    []byte
	issuer string
}

// NewSigner builds an HS256 signer. The key must be non-blank; the issuer
// may be empty, in which case no iss claim is emitted.
func NewSigner(key, issuer string) (*Signer, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrMissingSigningKey
	}
	return &Signer{key: []byte(key), issuer: issuer}, nil
}

// Sign serializes the claim set and signs it. The caller's entries come
// first, followed by nbf and exp as epoch seconds and the signer's issuer.
// The input set is not mutated.
func (s *Signer) Sign(set ClaimSet, notBefore, expires time.Time) (string, error) {
	payload := set.Clone()
	payload.AddNumber("nbf", notBefore.Unix())
	payload.AddNumber("exp", expires.Unix())
	if s.issuer != "" {
		payload.Add("iss", s.issuer)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &payload)
	return token.SignedString(s.key)
}
