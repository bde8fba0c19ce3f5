package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/arkforge/scaffold/internal/domain"
	"github.com/arkforge/scaffold/internal/service"
	"github.com/arkforge/scaffold/internal/store"
	"github.com/arkforge/scaffold/pkg/httpx"
	"github.com/arkforge/scaffold/pkg/idx"
	"github.com/arkforge/scaffold/pkg/slogx"
)

type UsersHandler struct {
	UserService *service.UserService
}

type userInfo struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	Fullname  string   `json:"fullname"`
	RoleIDs   []string `json:"roleIds"`
	CreatedAt string   `json:"createdAt"`
}

func toUserInfo(u domain.User) userInfo {
	roleIDs := make([]string, len(u.RoleIDs))
	for i, id := range u.RoleIDs {
		roleIDs[i] = id.String()
	}
	return userInfo{
		ID:        u.ID.String(),
		Username:  u.Username,
		Fullname:  u.Fullname,
		RoleIDs:   roleIDs,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	users, err := h.UserService.ListUsers(ctx)
	if err != nil {
		log.Error("failed to list users", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to list users")
		return
	}

	out := make([]userInfo, len(users))
	for i, u := range users {
		out[i] = toUserInfo(u)
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"users": out})
}

func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed user id")
		return
	}

	u, err := h.UserService.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "not_found", "No such user")
			return
		}
		slogx.FromContext(ctx).Error("failed to get user", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to fetch user")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserInfo(u))
}

func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var cmd service.CreateUserCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	u, err := h.UserService.CreateUser(ctx, cmd)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
				Error:            "validation_failed",
				ErrorDescription: "One or more fields are invalid",
				Fields:           verr.Fields,
			})
		case errors.Is(err, service.ErrUsernameTaken):
			httpx.WriteError(w, http.StatusConflict, "username_taken", "Username is already in use")
		default:
			log.Error("failed to create user", "error", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to create user")
		}
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toUserInfo(u))
}

func (h *UsersHandler) SetRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed user id")
		return
	}

	var req struct {
		RoleIDs []string `json:"roleIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	roleIDs := make([]idx.ID, 0, len(req.RoleIDs))
	for _, raw := range req.RoleIDs {
		roleID, err := idx.Parse(raw)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed role id: "+raw)
			return
		}
		roleIDs = append(roleIDs, roleID)
	}

	if err := h.UserService.AssignRoles(ctx, id, roleIDs); err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownRole):
			httpx.WriteError(w, http.StatusBadRequest, "unknown_role", "One or more roles do not exist")
		case errors.Is(err, store.ErrNotFound):
			httpx.WriteError(w, http.StatusNotFound, "not_found", "No such user")
		default:
			slogx.FromContext(ctx).Error("failed to assign roles", "error", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to assign roles")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed user id")
		return
	}

	if err := h.UserService.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "not_found", "No such user")
			return
		}
		slogx.FromContext(ctx).Error("failed to delete user", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
