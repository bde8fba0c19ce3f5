package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/arkforge/scaffold/internal/domain"
	"github.com/arkforge/scaffold/internal/service"
	"github.com/arkforge/scaffold/internal/store"
	"github.com/arkforge/scaffold/pkg/httpx"
	"github.com/arkforge/scaffold/pkg/idx"
	"github.com/arkforge/scaffold/pkg/slogx"
)

type RolesHandler struct {
	RoleService *service.RoleService
}

type roleInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

func toRoleInfo(role domain.Role) roleInfo {
	return roleInfo{
		ID:          role.ID.String(),
		Name:        role.Name,
		Permissions: role.Permissions,
	}
}

func (h *RolesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	roles, err := h.RoleService.ListAll(ctx)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list roles", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to list roles")
		return
	}

	out := make([]roleInfo, len(roles))
	for i, role := range roles {
		out[i] = toRoleInfo(role)
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"roles": out})
}

func (h *RolesHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var cmd service.CreateRoleCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	role, err := h.RoleService.CreateRole(ctx, cmd)
	if err != nil {
		writeRoleError(ctx, w, err, "Failed to create role")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toRoleInfo(role))
}

func (h *RolesHandler) Edit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	roleID, err := idx.Parse(r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed role id")
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	if err := h.RoleService.EditRole(ctx, service.EditRoleCommand{
		RoleID: roleID,
		Name:   req.Name,
	}); err != nil {
		writeRoleError(ctx, w, err, "Failed to edit role")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RolesHandler) SetPermissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	roleID, err := idx.Parse(r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed role id")
		return
	}

	var req struct {
		Permissions []string `json:"permissions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	if err := h.RoleService.SetPermissions(ctx, roleID, req.Permissions); err != nil {
		writeRoleError(ctx, w, err, "Failed to set permissions")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RolesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	roleID, err := idx.Parse(r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed role id")
		return
	}

	if err := h.RoleService.DeleteRole(ctx, roleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "not_found", "No such role")
			return
		}
		// Still-assigned roles surface as a constraint failure.
		httpx.WriteError(w, http.StatusConflict, "role_in_use",
			"Role is still assigned to one or more users")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeRoleError(ctx context.Context, w http.ResponseWriter, err error, fallback string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
			Error:            "validation_failed",
			ErrorDescription: "One or more fields are invalid",
			Fields:           verr.Fields,
		})
	case errors.Is(err, service.ErrUnknownPermission):
		httpx.WriteError(w, http.StatusBadRequest, "unknown_permission",
			"One or more permissions do not exist")
	case errors.Is(err, service.ErrRoleNameTaken):
		httpx.WriteError(w, http.StatusConflict, "role_name_taken", "Role name is already in use")
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "No such role")
	default:
		slogx.FromContext(ctx).Error(fallback, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", fallback)
	}
}
