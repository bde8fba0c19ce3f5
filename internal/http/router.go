package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/arkforge/scaffold/internal/service"
	"github.com/arkforge/scaffold/internal/store"
	"github.com/arkforge/scaffold/pkg/httpx"
	"github.com/arkforge/scaffold/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	authz        *httpx.Authorizer
	cookie       CookieConfig
	clientHeader string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store             store.Store
	AuthService       *service.AuthService
	UserService       *service.UserService
	RoleService       *service.RoleService
	PermissionService *service.PermissionService
}

// CookieConfig controls how the login handler writes the access-token
// cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

func NewRouter(
	authn httpx.AuthnConfig,
	authz *httpx.Authorizer,
	cookie CookieConfig,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	if cookie.Name == "" {
		cookie.Name = httpx.DefaultAccessTokenCookie
	}
	clientHeader := authn.ClientIDHeader
	if clientHeader == "" {
		clientHeader = httpx.DefaultClientIDHeader
	}

	r := &Router{
		Mux:          http.NewServeMux(),
		authz:        authz,
		cookie:       cookie,
		clientHeader: clientHeader,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Global chain: request logging, then authentication on every request
	// (the authn middleware never rejects; route guards do).
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Authentication(authn),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerRoles()
	r.registerPermissions()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	login := &LoginHandler{AuthService: r.AuthService, Cookie: r.cookie, ClientIDHeader: r.clientHeader}
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(login,
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "username"),
		),
	)

	refresh := &RefreshHandler{AuthService: r.AuthService, Cookie: r.cookie, ClientIDHeader: r.clientHeader}
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(refresh,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	logout := &LogoutHandler{AuthService: r.AuthService, Cookie: r.cookie}
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(logout,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{UserService: r.UserService}

	r.Mux.Handle("GET /v1/users",
		httpx.Chain(http.HandlerFunc(h.List),
			r.authz.Require(service.PermUserManagementRead),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /v1/users/{id}",
		httpx.Chain(http.HandlerFunc(h.Get),
			r.authz.Require(service.PermUserManagementRead),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /v1/users",
		httpx.Chain(http.HandlerFunc(h.Create),
			r.authz.Require(service.PermUserManagementReadWrite),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("PUT /v1/users/{id}/roles",
		httpx.Chain(http.HandlerFunc(h.SetRoles),
			r.authz.Require(service.PermUserManagementReadWrite),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/users/{id}",
		httpx.Chain(http.HandlerFunc(h.Delete),
			r.authz.Require(service.PermUserManagementDelete),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerRoles() {
	h := &RolesHandler{RoleService: r.RoleService}

	r.Mux.Handle("GET /v1/roles",
		httpx.Chain(http.HandlerFunc(h.List),
			r.authz.Require(service.PermRoleManagementRead),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /v1/roles",
		httpx.Chain(http.HandlerFunc(h.Create),
			r.authz.Require(service.PermRoleManagementReadWrite),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("PUT /v1/roles/{id}",
		httpx.Chain(http.HandlerFunc(h.Edit),
			r.authz.Require(service.PermRoleManagementReadWrite),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("PUT /v1/roles/{id}/permissions",
		httpx.Chain(http.HandlerFunc(h.SetPermissions),
			r.authz.Require(service.PermRoleManagementReadWrite),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/roles/{id}",
		httpx.Chain(http.HandlerFunc(h.Delete),
			r.authz.Require(service.PermRoleManagementDelete),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerPermissions() {
	h := &PermissionsHandler{PermissionService: r.PermissionService}

	r.Mux.Handle("GET /v1/permissions",
		httpx.Chain(http.HandlerFunc(h.List),
			r.authz.Require(service.PermRoleManagementRead),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
