package rbac

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/councilbooks/councilbooks/internal/platform/httpx"
)

// RolesHandler exposes the read-only role listing.
type RolesHandler struct {
	logger  *slog.Logger
	service *Service
}

// NewRolesHandler builds a RolesHandler.
func NewRolesHandler(logger *slog.Logger, service *Service) *RolesHandler {
	return &RolesHandler{logger: logger, service: service}
}

// MountRoutes registers role routes.
func (h *RolesHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.listRoles)
}

type roleResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *RolesHandler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListActiveRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, roleResponse{
			ID:          role.ID,
			Name:        role.Name,
			Description: role.Description,
			IsActive:    role.IsActive,
			CreatedAt:   role.CreatedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}
