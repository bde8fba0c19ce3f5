package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/arkforge/scaffold/internal/service"
	"github.com/arkforge/scaffold/pkg/httpx"
	"github.com/arkforge/scaffold/pkg/slogx"
)

type LoginHandler struct {
	AuthService    *service.AuthService
	Cookie         CookieConfig
	ClientIDHeader string
}

type loginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	DeviceType string `json:"deviceType"`
}

// ServeHTTP handles POST /v1/auth/login. On success the access token is
// written both into the envelope and the access-token cookie; the client id
// header binds the issued token to this client.
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	clientID := r.Header.Get(h.ClientIDHeader)
	token, err := h.AuthService.Login(ctx, req.Username, req.Password, req.DeviceType, clientID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials",
				"Username or password is incorrect")
			return
		}
		log.Error("login failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Login failed")
		return
	}

	setAccessTokenCookie(w, h.Cookie, token.AccessToken)
	httpx.WriteJSON(w, http.StatusOK, token)
}

type RefreshHandler struct {
	AuthService    *service.AuthService
	Cookie         CookieConfig
	ClientIDHeader string
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ServeHTTP handles POST /v1/auth/refresh, rotating the refresh token.
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "refreshToken is required")
		return
	}

	clientID := r.Header.Get(h.ClientIDHeader)
	token, err := h.AuthService.Refresh(ctx, req.RefreshToken, clientID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefresh) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_refresh_token",
				"Refresh token is expired, revoked, or unknown")
			return
		}
		log.Error("refresh failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Refresh failed")
		return
	}

	setAccessTokenCookie(w, h.Cookie, token.AccessToken)
	httpx.WriteJSON(w, http.StatusOK, token)
}

type LogoutHandler struct {
	AuthService *service.AuthService
	Cookie      CookieConfig
}

// ServeHTTP handles POST /v1/auth/logout: revokes the refresh token and
// clears the cookie. Always succeeds.
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.RefreshToken != "" {
		if err := h.AuthService.Logout(ctx, req.RefreshToken); err != nil {
			log.Error("logout revocation failed", "error", err)
		}
	}

	clearAccessTokenCookie(w, h.Cookie)
	w.WriteHeader(http.StatusNoContent)
}

func setAccessTokenCookie(w http.ResponseWriter, cfg CookieConfig, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearAccessTokenCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
