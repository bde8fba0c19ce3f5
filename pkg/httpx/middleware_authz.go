package httpx

import (
	"net/http"
	"slices"
)

// permissionsClaim is the claim carrying policy grants. Each named policy
// requires a permissions claim equal to the policy name.
const permissionsClaim = "permissions"

// Authorizer evaluates named policies against the request principal. When
// Disabled is set, evaluation is replaced by an always-allow evaluator;
// that mode exists for local and test environments only and must be opted
// into through configuration.
type Authorizer struct {
	Disabled bool

	// Policies, when non-empty, is the registry of known policy names.
	// Requiring a policy outside the registry denies every request.
	Policies []string

	// Challenge overrides the WWW-Authenticate scheme. Defaults to Bearer.
	Challenge string

	// IncludeErrorDetails adds the denial reason to challenge responses.
	IncludeErrorDetails bool
}

// Require gates a handler behind the named policy.
func (a *Authorizer) Require(policy string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a.Disabled {
				next.ServeHTTP(w, r)
				return
			}
			if len(a.Policies) > 0 && !slices.Contains(a.Policies, policy) {
				a.challenge(w, http.StatusForbidden, "unregistered policy: "+policy)
				return
			}

			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				a.challenge(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !slices.Contains(claims.Values(permissionsClaim), policy) {
				a.challenge(w, http.StatusForbidden, "missing permission: "+policy)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthenticated gates a handler behind any bound principal without a
// specific policy.
func (a *Authorizer) RequireAuthenticated() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a.Disabled || IsAuthenticated(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}
			a.challenge(w, http.StatusUnauthorized, "authentication required")
		})
	}
}

func (a *Authorizer) challenge(w http.ResponseWriter, code int, reason string) {
	scheme := a.Challenge
	if scheme == "" {
		scheme = "Bearer"
	}
	value := scheme
	if a.IncludeErrorDetails {
		value += ` error="` + reason + `"`
	}
	w.Header().Set("WWW-Authenticate", value)
	w.WriteHeader(code)
}
