package backup

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/councilbooks/councilbooks/internal/platform/httpx"
	"github.com/councilbooks/councilbooks/internal/rbac"
	"github.com/councilbooks/councilbooks/internal/shared"
)

// Handler exposes the backup API. The endpoint guard covers backup_data;
// restore_data is checked inside the action handler because both actions
// share one URL and only the request body tells them apart.
type Handler struct {
	service *Service
	authz   rbac.Authorizer
	logger  *slog.Logger
}

// NewHandler builds a Handler.
func NewHandler(service *Service, authz rbac.Authorizer, logger *slog.Logger) *Handler {
	return &Handler{service: service, authz: authz, logger: logger}
}

// MountRoutes registers backup endpoints behind their guards.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Guard) {
	r.With(guard.RequirePermission(shared.PermBackupData)).Post("/", h.run)
	r.With(guard.RequirePermission(shared.PermBackupData)).Get("/", h.history)
}

type actionRequest struct {
	Action string `json:"action"`
	File   string `json:"file"`
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	switch req.Action {
	case ActionBackup:
		file, err := h.service.Create(r.Context(), actor.UserID)
		if err != nil {
			h.logger.Error("create backup", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Backup Failed", "")
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"message": "Backup created", "file": file})
	case ActionRestore:
		ok, err := h.authz.HasPermission(r.Context(), actor.UserID, shared.PermRestoreData)
		if err != nil {
			h.logger.Error("restore permission check", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		if !ok {
			rbac.RespondDenied(w, r, fmt.Sprintf("You do not have permission: %s", shared.PermRestoreData))
			return
		}
		if err := h.service.Restore(r.Context(), actor.UserID, req.File); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				httpx.Problem(w, http.StatusNotFound, "Not Found", "backup file not found")
				return
			}
			h.logger.Error("restore backup", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Restore Failed", "")
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"message": "Backup restored", "file": req.File})
	default:
		httpx.Problem(w, http.StatusBadRequest, "Invalid Action", fmt.Sprintf("unknown action %q", req.Action))
	}
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	logs, err := h.service.History(r.Context(), 20)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"logs": logs})
}
