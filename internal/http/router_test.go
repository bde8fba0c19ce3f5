package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/juju/clock"
	"github.com/stretchr/testify/require"

	httpapi "github.com/arkforge/scaffold/internal/http"
	"github.com/arkforge/scaffold/internal/service"
	"github.com/arkforge/scaffold/internal/store"
	"github.com/arkforge/scaffold/internal/store/drivers/sqlite"
	"github.com/arkforge/scaffold/pkg/authx"
	"github.com/arkforge/scaffold/pkg/cryptox"
	"github.com/arkforge/scaffold/pkg/httpx"
	"github.com/arkforge/scaffold/pkg/idx"
	"github.com/arkforge/scaffold/pkg/jwtx"
	"github.com/arkforge/scaffold/pkg/slogx"
)

const testSigningKey = "router-test-key-0123456789abcdefg"

func TestMain(m *testing.M) {
	pepperPath := filepath.Join(os.TempDir(), "http-test-pepper")
	cryptox.SetPepperPath(pepperPath)
	os.Remove(pepperPath)
	defer os.Remove(pepperPath)

	os.Exit(m.Run())
}

type env struct {
	router *httpapi.Router
	store  store.Store
	users  *service.UserService
	roles  *service.RoleService
}

func newEnv(t *testing.T, disabled bool) *env {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	manager, err := authx.NewManager(authx.Options{
		IssuerSigningKey: testSigningKey,
		Issuer:           "scaffold",
	}, clock.WallClock)
	require.NoError(t, err)

	policy, err := jwtx.NewPolicy(jwtx.PolicyConfig{
		IssuerSigningKey: testSigningKey,
		ValidateLifetime: true,
	}, clock.WallClock)
	require.NoError(t, err)

	perms := &service.PermissionService{Store: st}
	users := &service.UserService{Store: st}
	roles := &service.RoleService{Store: st, Permissions: perms}

	router := httpapi.NewRouter(
		httpx.AuthnConfig{Policy: policy},
		&httpx.Authorizer{Disabled: disabled},
		httpapi.CookieConfig{MaxAge: 15 * time.Minute},
		"test",
		st,
		slogx.New(slogx.Config{Service: "test", Level: "error", Format: "text"}),
	)
	router.AuthService = &service.AuthService{
		Store:  st,
		Tokens: manager,
		Clock:  clock.WallClock,
	}
	router.UserService = users
	router.RoleService = roles
	router.PermissionService = perms
	router.ApplyRoutes()

	return &env{router: router, store: st, users: users, roles: roles}
}

// seedAdmin creates a user holding every user-management permission.
func (e *env) seedAdmin(t *testing.T) {
	t.Helper()

	u, err := e.users.CreateUser(t.Context(), service.CreateUserCommand{
		Username: "admin",
		Fullname: "Admin Person",
		Password: "Sup3rSecret",
	})
	require.NoError(t, err)

	role, err := e.roles.CreateRole(t.Context(), service.CreateRoleCommand{
		Name: "admin",
		Permissions: []string{
			service.PermUserManagementRead,
			service.PermUserManagementReadWrite,
			service.PermUserManagementDelete,
		},
	})
	require.NoError(t, err)
	require.NoError(t, e.users.AssignRoles(t.Context(), u.ID, []idx.ID{role.ID}))
}

// login performs the login round trip and returns the access-token cookie.
func (e *env) login(t *testing.T, clientID string) (*http.Cookie, *authx.Token) {
	t.Helper()

	body, _ := json.Marshal(map[string]string{
		"username":   "admin",
		"password":   "Sup3rSecret",
		"deviceType": "web",
	})
	r := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(body))
	r.Header.Set(httpx.DefaultClientIDHeader, clientID)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, r)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var token authx.Token
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))

	for _, c := range rec.Result().Cookies() {
		if c.Name == httpx.DefaultAccessTokenCookie {
			require.Equal(t, token.AccessToken, c.Value)
			return c, &token
		}
	}
	t.Fatal("access-token cookie not set")
	return nil, nil
}

func TestLoginAndAuthorizedRequest(t *testing.T) {
	e := newEnv(t, false)
	e.seedAdmin(t)

	cookie, token := e.login(t, "client-a")
	require.NotEmpty(t, token.RefreshToken)

	r := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
	r.AddCookie(cookie)
	r.Header.Set(httpx.DefaultClientIDHeader, "client-a")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, r)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestClientBindingMismatchLeavesUnauthenticated(t *testing.T) {
	e := newEnv(t, false)
	e.seedAdmin(t)

	cookie, _ := e.login(t, "client-a")

	r := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
	r.AddCookie(cookie)
	r.Header.Set(httpx.DefaultClientIDHeader, "client-b")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, r)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthorizationHeaderIgnored(t *testing.T) {
	e := newEnv(t, false)
	e.seedAdmin(t)

	_, token := e.login(t, "client-a")

	// A valid token in the authorization header must not authenticate.
	r := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
	r.Header.Set("Authorization", "Bearer "+token.AccessToken)
	r.Header.Set(httpx.DefaultClientIDHeader, "client-a")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, r)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDisabledAuthorizationAllowsEverything(t *testing.T) {
	e := newEnv(t, true)

	// No user, no token, no client header. Still allowed.
	r := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, r)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMissingPermissionForbidden(t *testing.T) {
	e := newEnv(t, false)
	e.seedAdmin(t)

	cookie, _ := e.login(t, "client-a")

	// Admin lacks role-management permissions.
	r := httptest.NewRequest(http.MethodGet, "/v1/roles", nil)
	r.AddCookie(cookie)
	r.Header.Set(httpx.DefaultClientIDHeader, "client-a")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, r)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLoginBadCredentials(t *testing.T) {
	e := newEnv(t, false)
	e.seedAdmin(t)

	body, _ := json.Marshal(map[string]string{
		"username": "admin", "password": "WrongPass1", "deviceType": "web",
	})
	r := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(body))
	r.Header.Set(httpx.DefaultClientIDHeader, "client-a")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, r)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshAndLogoutEndpoints(t *testing.T) {
	e := newEnv(t, false)
	e.seedAdmin(t)

	_, token := e.login(t, "client-a")

	body, _ := json.Marshal(map[string]string{"refreshToken": token.RefreshToken})
	r := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", bytes.NewReader(body))
	r.Header.Set(httpx.DefaultClientIDHeader, "client-a")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, r)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var rotated authx.Token
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rotated))
	require.NotEqual(t, token.RefreshToken, rotated.RefreshToken)

	body, _ = json.Marshal(map[string]string{"refreshToken": rotated.RefreshToken})
	r = httptest.NewRequest(http.MethodPost, "/v1/auth/logout", bytes.NewReader(body))
	rec = httptest.NewRecorder()
	e.router.ServeHTTP(rec, r)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// The revoked token no longer refreshes.
	body, _ = json.Marshal(map[string]string{"refreshToken": rotated.RefreshToken})
	r = httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", bytes.NewReader(body))
	r.Header.Set(httpx.DefaultClientIDHeader, "client-a")
	rec = httptest.NewRecorder()
	e.router.ServeHTTP(rec, r)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	e := newEnv(t, false)

	for _, path := range []string{"/livez", "/readyz"} {
		r := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		e.router.ServeHTTP(rec, r)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}
