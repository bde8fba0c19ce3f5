package httpx

import (
	"context"
	"net/http"

	"github.com/arkforge/scaffold/pkg/jwtx"
	"github.com/arkforge/scaffold/pkg/slogx"
)

// Default transport names. Both are overridable through AuthnConfig.
const (
	DefaultAccessTokenCookie = "__access-token"
	DefaultClientIDHeader    = "x-client-id"

	authorizationHeader = "Authorization"
)

// AuthnConfig configures the authentication middleware.
type AuthnConfig struct {
	// Policy validates incoming tokens. Required.
	Policy *jwtx.Policy

	// CookieName is the access-token cookie. Defaults to "__access-token".
	CookieName string

	// ClientIDHeader is the request header holding the client id that must
	// match the token's ci claim. Defaults to "x-client-id".
	ClientIDHeader string

	// SaveToken keeps the raw access token in the request context.
	SaveToken bool
}

// Authentication extracts and validates the access token on every request.
//
// The trust boundary is the cookie: any inbound authorization header is
// discarded before anything downstream can read it. A missing cookie, a
// token the policy rejects, or a failed client-binding check all leave the
// request unauthenticated and let it continue; downstream authorization
// decides whether that matters. Nothing here aborts the pipeline.
func Authentication(cfg AuthnConfig) Middleware {
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = DefaultAccessTokenCookie
	}
	clientHeader := cfg.ClientIDHeader
	if clientHeader == "" {
		clientHeader = DefaultClientIDHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			r.Header.Del(authorizationHeader)

			cookie, err := r.Cookie(cookieName)
			if err != nil {
				// No credential. Valid state, not an error.
				next.ServeHTTP(w, r)
				return
			}

			claims, err := cfg.Policy.Validate(cookie.Value)
			if err != nil {
				log.Warn("token validation failed", "reason", err)
				next.ServeHTTP(w, r)
				return
			}

			// Client binding: the token is only honored when presented by
			// the client it was issued to.
			clientID := r.Header.Get(clientHeader)
			if clientID == "" {
				log.Warn("client id header missing, authentication failed")
				next.ServeHTTP(w, r)
				return
			}
			ci, ok := claims.First("ci")
			if !ok || ci != clientID {
				log.Warn("client binding mismatch, authentication failed")
				next.ServeHTTP(w, r)
				return
			}

			sub, _ := claims.First("sub")
			ctx = context.WithValue(ctx, CtxKeyUserID, sub)
			ctx = context.WithValue(ctx, CtxKeyClaims, claims)
			if cfg.SaveToken {
				ctx = context.WithValue(ctx, CtxKeyToken, cookie.Value)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
