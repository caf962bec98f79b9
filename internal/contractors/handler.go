package contractors

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/councilbooks/councilbooks/internal/platform/httpx"
	"github.com/councilbooks/councilbooks/internal/rbac"
	"github.com/councilbooks/councilbooks/internal/shared"
)

// Handler exposes the contractor API.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

// MountRoutes registers contractor endpoints behind their guards.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Guard) {
	r.With(guard.RequirePermission(shared.PermViewContractors)).Get("/", h.list)
	r.With(guard.RequirePermission(shared.PermViewContractors)).Get("/{id}/", h.get)
	r.With(guard.RequirePermission(shared.PermAddContractors)).Post("/", h.create)
	r.With(guard.RequirePermission(shared.PermEditContractors)).Put("/{id}/", h.update)
	r.With(guard.RequirePermission(shared.PermDeleteContractors)).Delete("/{id}/", h.delete)
	r.With(guard.RequirePermission(shared.PermDeleteContractors)).Post("/bulk-delete/", h.bulkDelete)
}

type contractorPayload struct {
	Name      string `json:"contractor_name" validate:"required,max=250"`
	Address   string `json:"contractor_address" validate:"omitempty,max=300"`
	ContactNo string `json:"contractor_contact_no" validate:"omitempty,max=50"`
	PAN       string `json:"contractor_pan" validate:"omitempty,max=50"`
	TAN       string `json:"contractor_tan" validate:"omitempty,max=50"`
	GST       string `json:"contractor_gst" validate:"omitempty,max=50"`
	BankAC    string `json:"contractor_bank_ac" validate:"omitempty,max=50"`
	IFSC      string `json:"contractor_ifsc" validate:"omitempty,max=50"`
	Bank      string `json:"contractor_bank" validate:"omitempty,max=50"`
	Remark    string `json:"remark" validate:"omitempty,max=250"`
	Status    string `json:"status" validate:"omitempty,max=50"`
}

type contractorResponse struct {
	ID int64 `json:"id"`
	contractorPayload
	UpdatedBy int64  `json:"update_by"`
	UpdatedAt string `json:"last_update_date"`
}

func toResponse(c Contractor) contractorResponse {
	return contractorResponse{
		ID: c.ID,
		contractorPayload: contractorPayload{
			Name:      c.Name,
			Address:   c.Address,
			ContactNo: c.ContactNo,
			PAN:       c.PAN,
			TAN:       c.TAN,
			GST:       c.GST,
			BankAC:    c.BankAC,
			IFSC:      c.IFSC,
			Bank:      c.Bank,
			Remark:    c.Remark,
			Status:    c.Status,
		},
		UpdatedBy: c.UpdatedBy,
		UpdatedAt: c.UpdatedAt.Format("2006-01-02"),
	}
}

func (p contractorPayload) toDomain() Contractor {
	return Contractor{
		Name:      p.Name,
		Address:   p.Address,
		ContactNo: p.ContactNo,
		PAN:       p.PAN,
		TAN:       p.TAN,
		GST:       p.GST,
		BankAC:    p.BankAC,
		IFSC:      p.IFSC,
		Bank:      p.Bank,
		Remark:    p.Remark,
		Status:    p.Status,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	contractors, err := h.service.List(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]contractorResponse, 0, len(contractors))
	for _, c := range contractors {
		out = append(out, toResponse(c))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"contractors": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "contractor id must be an integer")
		return
	}
	contractor, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*contractor))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var payload contractorPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	contractor, err := h.service.Create(r.Context(), actor.UserID, payload.toDomain())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(*contractor))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "contractor id must be an integer")
		return
	}
	var payload contractorPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	contractor := payload.toDomain()
	contractor.ID = id
	actor := shared.IdentityFromContext(r.Context())
	updated, err := h.service.Update(r.Context(), actor.UserID, contractor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*updated))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "contractor id must be an integer")
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	if err := h.service.Delete(r.Context(), actor.UserID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Contractor deleted"})
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
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "ids must be a list of contractor ids")
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	deleted, err := h.service.BulkDelete(r.Context(), actor.UserID, ids)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Contractors deleted", "deleted": deleted})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
