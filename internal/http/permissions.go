package http

import (
	"net/http"

	"github.com/arkforge/scaffold/internal/service"
	"github.com/arkforge/scaffold/pkg/httpx"
	"github.com/arkforge/scaffold/pkg/slogx"
)

type PermissionsHandler struct {
	PermissionService *service.PermissionService
}

type permissionInfo struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (h *PermissionsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	perms, err := h.PermissionService.ListAll(ctx)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list permissions", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to list permissions")
		return
	}

	out := make([]permissionInfo, len(perms))
	for i, p := range perms {
		out[i] = permissionInfo{Code: p.Code, Name: p.Name, Description: p.Description}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"permissions": out})
}
