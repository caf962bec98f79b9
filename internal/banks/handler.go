package banks

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/councilbooks/councilbooks/internal/platform/httpx"
	"github.com/councilbooks/councilbooks/internal/rbac"
	"github.com/councilbooks/councilbooks/internal/shared"
)

// Handler exposes the bank account API.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

// MountRoutes registers bank account endpoints behind their guards.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Guard) {
	r.With(guard.RequirePermission(shared.PermViewBanks)).Get("/", h.list)
	r.With(guard.RequirePermission(shared.PermViewBanks)).Get("/{id}/", h.get)
	r.With(guard.RequirePermission(shared.PermAddBanks)).Post("/", h.create)
	r.With(guard.RequirePermission(shared.PermEditBanks)).Put("/{id}/", h.update)
	r.With(guard.RequirePermission(shared.PermDeleteBanks)).Delete("/{id}/", h.delete)
	r.With(guard.RequirePermission(shared.PermDeleteBanks)).Post("/bulk-delete/", h.bulkDelete)
}

type accountPayload struct {
	AccountName string `json:"account_name" validate:"omitempty,max=250"`
	AccountNo   string `json:"account_no" validate:"omitempty,numeric,max=25"`
	IFSC        string `json:"ifsc" validate:"omitempty,max=11"`
	BankName    string `json:"bank_name" validate:"omitempty,max=50"`
	SchemeName  string `json:"scheme_name" validate:"omitempty,max=250"`
	ManagerName string `json:"bank_manager_name" validate:"omitempty,max=50"`
	Contact     string `json:"bank_contact" validate:"omitempty,max=50"`
	Address     string `json:"bank_address" validate:"omitempty,max=250"`
	Remark      string `json:"remark" validate:"omitempty,max=300"`
	Status      string `json:"status" validate:"omitempty,max=50"`
}

type accountResponse struct {
	ID int64 `json:"id"`
	accountPayload
	UpdatedBy int64  `json:"update_by"`
	UpdatedAt string `json:"last_update_date"`
}

func toResponse(b BankAccount) accountResponse {
	return accountResponse{
		ID: b.ID,
		accountPayload: accountPayload{
			AccountName: b.AccountName,
			AccountNo:   b.AccountNo,
			IFSC:        b.IFSC,
			BankName:    b.BankName,
			SchemeName:  b.SchemeName,
			ManagerName: b.ManagerName,
			Contact:     b.Contact,
			Address:     b.Address,
			Remark:      b.Remark,
			Status:      b.Status,
		},
		UpdatedBy: b.UpdatedBy,
		UpdatedAt: b.UpdatedAt.Format("2006-01-02"),
	}
}

func (p accountPayload) toDomain() BankAccount {
	return BankAccount{
		AccountName: p.AccountName,
		AccountNo:   p.AccountNo,
		IFSC:        p.IFSC,
		BankName:    p.BankName,
		SchemeName:  p.SchemeName,
		ManagerName: p.ManagerName,
		Contact:     p.Contact,
		Address:     p.Address,
		Remark:      p.Remark,
		Status:      p.Status,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, b := range accounts {
		out = append(out, toResponse(b))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"bank_accounts": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "bank account id must be an integer")
		return
	}
	account, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*account))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var payload accountPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	account, err := h.service.Create(r.Context(), actor.UserID, payload.toDomain())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(*account))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "bank account id must be an integer")
		return
	}
	var payload accountPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	account := payload.toDomain()
	account.ID = id
	actor := shared.IdentityFromContext(r.Context())
	updated, err := h.service.Update(r.Context(), actor.UserID, account)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*updated))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "bank account id must be an integer")
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	if err := h.service.Delete(r.Context(), actor.UserID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Bank account deleted"})
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
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "ids must be a list of bank account ids")
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	deleted, err := h.service.BulkDelete(r.Context(), actor.UserID, ids)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Bank accounts deleted", "deleted": deleted})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
