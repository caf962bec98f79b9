package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/councilbooks/councilbooks/internal/platform/httpx"
	"github.com/councilbooks/councilbooks/internal/shared"
)

// PermissionsHandler serves the authenticated "my permissions" lookup.
type PermissionsHandler struct {
	logger  *slog.Logger
	service Authorizer
}

// NewPermissionsHandler builds a PermissionsHandler.
func NewPermissionsHandler(logger *slog.Logger, service Authorizer) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, service: service}
}

// MountRoutes registers the lookup route.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.myPermissions)
}

type permissionsResponse struct {
	Permissions []string `json:"permissions"`
}

// myPermissions returns the caller's effective permission set, sorted.
// Anonymous callers get an empty list rather than an error.
func (h *PermissionsHandler) myPermissions(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	if !id.Authenticated() {
		httpx.JSON(w, http.StatusOK, permissionsResponse{Permissions: []string{}})
		return
	}
	perms, err := h.service.ResolvePermissions(r.Context(), id.UserID)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("resolve permissions", slog.Any("error", err))
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, permissionsResponse{Permissions: perms})
}
