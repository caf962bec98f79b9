package transactions

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/councilbooks/councilbooks/internal/platform/httpx"
	"github.com/councilbooks/councilbooks/internal/rbac"
	"github.com/councilbooks/councilbooks/internal/shared"
)

const dateLayout = "2006-01-02"

// Handler exposes the cash book API.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

// MountRoutes registers transaction endpoints behind their guards.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Guard) {
	r.With(guard.RequirePermission(shared.PermViewTransactions)).Get("/", h.list)
	r.With(guard.RequirePermission(shared.PermViewTransactions)).Get("/{id}/", h.get)
	r.With(guard.RequirePermission(shared.PermAddTransactions)).Post("/", h.create)
	r.With(guard.RequirePermission(shared.PermEditTransactions)).Put("/{id}/", h.update)
	r.With(guard.RequirePermission(shared.PermDeleteTransactions)).Delete("/{id}/", h.delete)
	r.With(guard.RequirePermission(shared.PermDeleteTransactions)).Post("/bulk-delete/", h.bulkDelete)
}

type transactionPayload struct {
	Type         string  `json:"tx_type" validate:"required,oneof=credit debit"`
	BankID       *int64  `json:"bank_account" validate:"omitempty,min=1"`
	ContractorID *int64  `json:"contractor" validate:"omitempty,min=1"`
	Date         string  `json:"transaction_date" validate:"required"`
	Amount       float64 `json:"amount" validate:"required,gt=0"`
	Account      string  `json:"account" validate:"omitempty,max=50"`
	Particular   string  `json:"particular" validate:"omitempty,max=250"`
	Remark       string  `json:"remark" validate:"omitempty,max=250"`
}

type transactionResponse struct {
	ID                    int64   `json:"id"`
	Type                  string  `json:"tx_type"`
	BankID                *int64  `json:"bank_account"`
	BankDisplayName       string  `json:"bank_display_name"`
	ContractorID          *int64  `json:"contractor"`
	ContractorDisplayName string  `json:"contractor_display_name"`
	Date                  string  `json:"transaction_date"`
	Amount                float64 `json:"amount"`
	Account               string  `json:"account"`
	Particular            string  `json:"particular"`
	Remark                string  `json:"remark"`
	UpdatedBy             int64   `json:"update_by"`
}

func toResponse(t Transaction) transactionResponse {
	return transactionResponse{
		ID:                    t.ID,
		Type:                  t.Type,
		BankID:                t.BankAccountID,
		BankDisplayName:       t.BankDisplayName,
		ContractorID:          t.ContractorID,
		ContractorDisplayName: t.ContractorDisplayName,
		Date:                  t.Date.Format(dateLayout),
		Amount:                t.Amount,
		Account:               t.Account,
		Particular:            t.Particular,
		Remark:                t.Remark,
		UpdatedBy:             t.UpdatedBy,
	}
}

func (p transactionPayload) toDomain() (Transaction, error) {
	date, err := time.Parse(dateLayout, p.Date)
	if err != nil {
		return Transaction{}, err
	}
	return Transaction{
		Type:         p.Type,
		BankAccountID: p.BankID,
		ContractorID: p.ContractorID,
		Date:         date,
		Amount:       p.Amount,
		Account:      p.Account,
		Particular:   p.Particular,
		Remark:       p.Remark,
	}, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", err.Error())
		return
	}
	txs, err := h.service.List(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toResponse(t))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"transactions": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "transaction id must be an integer")
		return
	}
	tx, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*tx))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var payload transactionPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	tx, err := payload.toDomain()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "transaction_date must be YYYY-MM-DD")
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	created, err := h.service.Create(r.Context(), actor.UserID, tx)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(*created))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "transaction id must be an integer")
		return
	}
	var payload transactionPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	tx, err := payload.toDomain()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "transaction_date must be YYYY-MM-DD")
		return
	}
	tx.ID = id
	actor := shared.IdentityFromContext(r.Context())
	updated, err := h.service.Update(r.Context(), actor.UserID, tx)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*updated))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "transaction id must be an integer")
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	if err := h.service.Delete(r.Context(), actor.UserID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted"})
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
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "ids must be a list of transaction ids")
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	deleted, err := h.service.BulkDelete(r.Context(), actor.UserID, ids)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Transactions deleted", "deleted": deleted})
}

func filterFromQuery(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	var filter Filter
	filter.Type = q.Get("type")
	if filter.Type != "" && !ValidType(filter.Type) {
		return Filter{}, strconv.ErrSyntax
	}
	if raw := q.Get("bank"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Filter{}, err
		}
		filter.BankID = id
	}
	if raw := q.Get("contractor"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Filter{}, err
		}
		filter.ContractorID = id
	}
	if raw := q.Get("from"); raw != "" {
		from, err := time.Parse(dateLayout, raw)
		if err != nil {
			return Filter{}, err
		}
		filter.From = from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := time.Parse(dateLayout, raw)
		if err != nil {
			return Filter{}, err
		}
		filter.To = to
	}
	return filter, nil
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
