package settings

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/councilbooks/councilbooks/internal/platform/httpx"
	"github.com/councilbooks/councilbooks/internal/rbac"
	"github.com/councilbooks/councilbooks/internal/shared"
)

// Handler exposes the settings API.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

// MountRoutes registers settings endpoints. The image-path lookup is
// deliberately unguarded: the login page needs the letterhead before any
// identity exists, and the pipeline gate maps it to no permission.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Guard) {
	r.Get("/image-path/", h.imagePath)
	r.With(guard.RequirePermission(shared.PermViewSettings)).Get("/", h.list)
	r.With(guard.RequirePermission(shared.PermViewSettings)).Get("/{id}/", h.get)
	r.With(guard.RequirePermission(shared.PermEditSettings)).Post("/", h.create)
	r.With(guard.RequirePermission(shared.PermEditSettings)).Put("/{id}/", h.update)
	r.With(guard.RequirePermission(shared.PermEditSettings)).Delete("/{id}/", h.delete)
}

type settingPayload struct {
	CouncilName    string `json:"council_name" validate:"omitempty,max=50"`
	DistrictName   string `json:"district_name" validate:"omitempty,max=50"`
	Session        string `json:"session" validate:"omitempty,max=50"`
	ImagePath      string `json:"image_path" validate:"omitempty,max=500"`
	NoticeDate111  string `json:"notice_date_111" validate:"omitempty,max=50"`
	IssueDate      string `json:"issue_date" validate:"omitempty,max=50"`
	RenewalDate    string `json:"renewal_date" validate:"omitempty,max=50"`
	AssessmentYear string `json:"assessment_year" validate:"omitempty,max=50"`
	NoticeDate120  string `json:"notice_date_120" validate:"omitempty,max=50"`
	Age            int    `json:"age" validate:"omitempty,min=0"`
}

type settingResponse struct {
	ID int64 `json:"id"`
	settingPayload
}

func toResponse(s Setting) settingResponse {
	return settingResponse{
		ID: s.ID,
		settingPayload: settingPayload{
			CouncilName:    s.CouncilName,
			DistrictName:   s.DistrictName,
			Session:        s.Session,
			ImagePath:      s.ImagePath,
			NoticeDate111:  s.NoticeDate111,
			IssueDate:      s.IssueDate,
			RenewalDate:    s.RenewalDate,
			AssessmentYear: s.AssessmentYear,
			NoticeDate120:  s.NoticeDate120,
			Age:            s.Age,
		},
	}
}

func (p settingPayload) toDomain() Setting {
	return Setting{
		CouncilName:    p.CouncilName,
		DistrictName:   p.DistrictName,
		Session:        p.Session,
		ImagePath:      p.ImagePath,
		NoticeDate111:  p.NoticeDate111,
		IssueDate:      p.IssueDate,
		RenewalDate:    p.RenewalDate,
		AssessmentYear: p.AssessmentYear,
		NoticeDate120:  p.NoticeDate120,
		Age:            p.Age,
	}
}

func (h *Handler) imagePath(w http.ResponseWriter, r *http.Request) {
	path, err := h.service.ImagePath(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"image_path": path})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.List(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]settingResponse, 0, len(rows))
	for _, s := range rows {
		out = append(out, toResponse(s))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"settings": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "setting id must be an integer")
		return
	}
	setting, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*setting))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var payload settingPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	setting, err := h.service.Create(r.Context(), actor.UserID, payload.toDomain())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(*setting))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "setting id must be an integer")
		return
	}
	var payload settingPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	setting := payload.toDomain()
	setting.ID = id
	actor := shared.IdentityFromContext(r.Context())
	updated, err := h.service.Update(r.Context(), actor.UserID, setting)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*updated))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "setting id must be an integer")
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	if err := h.service.Delete(r.Context(), actor.UserID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Setting deleted"})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
