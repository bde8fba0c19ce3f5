package httpx

import (
	"context"

	"github.com/arkforge/scaffold/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUserID ctxKey = "user_id"
	CtxKeyClaims ctxKey = "claims"
	CtxKeyToken  ctxKey = "token" // raw access token, only when SaveToken is set
)

// UserIDFromContext returns the authenticated subject id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(CtxKeyUserID).(string)
	return v, ok
}

// ClaimsFromContext returns the validated claim set of the request
// principal, if any.
func ClaimsFromContext(ctx context.Context) (jwtx.ClaimSet, bool) {
	v, ok := ctx.Value(CtxKeyClaims).(jwtx.ClaimSet)
	return v, ok
}

// TokenFromContext returns the raw access token when the middleware was
// configured to save it.
func TokenFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(CtxKeyToken).(string)
	return v, ok
}

// IsAuthenticated reports whether the request carries a bound principal.
func IsAuthenticated(ctx context.Context) bool {
	_, ok := UserIDFromContext(ctx)
	return ok
}
