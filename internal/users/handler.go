package users

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/councilbooks/councilbooks/internal/platform/httpx"
	"github.com/councilbooks/councilbooks/internal/rbac"
	"github.com/councilbooks/councilbooks/internal/shared"
)

// Handler exposes the user management API.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

// MountRoutes registers user endpoints. Every route also passes through the
// pipeline gate; the per-endpoint guards here are the second lock. Bulk
// delete carries no endpoint guard and relies on the pipeline gate's
// POST /api/users/ mapping alone.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Guard) {
	r.With(guard.RequirePermission(shared.PermViewUsers)).Get("/", h.list)
	r.With(guard.RequirePermission(shared.PermViewUsers)).Get("/{id}/", h.get)
	r.With(guard.RequirePermission(shared.PermAddUsers)).Post("/", h.create)
	r.With(guard.RequirePermission(shared.PermEditUsers)).Put("/{id}/", h.update)
	r.With(guard.RequirePermission(shared.PermDeleteUsers)).Delete("/{id}/", h.delete)
	r.Post("/bulk-delete/", h.bulkDelete)
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     int    `json:"role"`
	RoleName string `json:"role_name"`
	Status   string `json:"status"`
	Contact  string `json:"contact"`
}

func toResponse(u User) userResponse {
	roleName, _ := shared.LegacyRoleName(u.Role)
	return userResponse{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
		RoleName: roleName,
		Status:   u.Status,
		Contact:  u.Contact,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toResponse(u))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "user id must be an integer")
		return
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*user))
}

type createRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8"`
	Role     int    `json:"role" validate:"omitempty,min=1,max=4"`
	Status   string `json:"status" validate:"omitempty,oneof=active inactive"`
	Contact  string `json:"contact" validate:"omitempty,max=128"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	user, err := h.service.Create(r.Context(), actor.UserID, CreateInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
		Status:   req.Status,
		Contact:  req.Contact,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(*user))
}

type updateRequest struct {
	Username string `json:"username" validate:"omitempty,min=3,max=64"`
	Password string `json:"password" validate:"omitempty,min=8"`
	Role     int    `json:"role" validate:"omitempty,min=1,max=4"`
	Status   string `json:"status" validate:"omitempty,oneof=active inactive"`
	Contact  string `json:"contact" validate:"omitempty,max=128"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "user id must be an integer")
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	user, err := h.service.Update(r.Context(), actor.UserID, id, UpdateInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
		Status:   req.Status,
		Contact:  req.Contact,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*user))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "user id must be an integer")
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	if err := h.service.Delete(r.Context(), actor.UserID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}

type bulkDeleteRequest struct {
	// RawIDs arrives either as a JSON array of numbers or as a single
	// comma-separated string; both forms are accepted.
	RawIDs any `json:"ids"`
}

func (h *Handler) bulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	ids, err := httpx.ParseIDList(req.RawIDs)
	if err != nil || len(ids) == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "ids must be a list of user ids")
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	deleted, err := h.service.BulkDelete(r.Context(), actor.UserID, ids)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Users deleted", "deleted": deleted})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
