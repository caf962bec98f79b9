package reports

import (
	"encoding/csv"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/councilbooks/councilbooks/internal/platform/httpx"
	"github.com/councilbooks/councilbooks/internal/rbac"
	"github.com/councilbooks/councilbooks/internal/shared"
	"github.com/councilbooks/councilbooks/report"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
)

// Handler exposes the report API. Viewing needs view_reports; the CSV and
// PDF formats additionally need export_reports, checked inside the handler
// because the format lives in the query string, not the path.
type Handler struct {
	service *Service
	authz   rbac.Authorizer
	pdf     *report.Client
	logger  *slog.Logger
}

// NewHandler builds a Handler. pdf may be nil when no Gotenberg is deployed.
func NewHandler(service *Service, authz rbac.Authorizer, pdf *report.Client, logger *slog.Logger) *Handler {
	return &Handler{service: service, authz: authz, pdf: pdf, logger: logger}
}

// MountRoutes registers report endpoints behind their guards.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Guard) {
	r.With(guard.RequirePermission(shared.PermViewReports)).Get("/", h.report)
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	reportType := q.Get("type")
	if reportType == "" {
		reportType = TypeRegister
	}
	format := q.Get("format")
	if format == "" {
		format = FormatJSON
	}
	if reportType != TypeRegister && reportType != TypeSummary {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Report", fmt.Sprintf("unknown report type %q", reportType))
		return
	}
	if format != FormatJSON && format != FormatCSV && format != FormatPDF {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Report", fmt.Sprintf("unknown format %q", format))
		return
	}
	period, err := ParsePeriod(q.Get("from"), q.Get("to"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Report", err.Error())
		return
	}

	if format != FormatJSON {
		id := shared.IdentityFromContext(r.Context())
		ok, err := h.authz.HasPermission(r.Context(), id.UserID, shared.PermExportReports)
		if err != nil {
			h.logger.Error("export permission check", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		if !ok {
			rbac.RespondDenied(w, r, fmt.Sprintf("You do not have permission: %s", shared.PermExportReports))
			return
		}
	}

	switch reportType {
	case TypeRegister:
		register, err := h.service.BuildRegister(r.Context(), period)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		h.writeRegister(w, r, format, register)
	case TypeSummary:
		summary, err := h.service.BuildSummary(r.Context(), period)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		h.writeSummary(w, r, format, summary)
	}
}

func (h *Handler) writeRegister(w http.ResponseWriter, r *http.Request, format string, register *Register) {
	switch format {
	case FormatJSON:
		httpx.JSON(w, http.StatusOK, register)
	case FormatCSV:
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="transaction-register.csv"`)
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"ID", "Date", "Type", "Bank", "Contractor", "Particular", "Account", "Amount"})
		for _, row := range register.Rows {
			_ = cw.Write([]string{
				strconv.FormatInt(row.ID, 10), row.Date, row.Type, row.BankName,
				row.ContractorName, row.Particular, row.Account, FormatAmount(row.Amount),
			})
		}
		_ = cw.Write([]string{"", "", "", "", "", "", "Total", FormatAmount(register.Total)})
		cw.Flush()
	case FormatPDF:
		h.renderPDF(w, r, "transaction-register.pdf", registerHTML(register))
	}
}

func (h *Handler) writeSummary(w http.ResponseWriter, r *http.Request, format string, summary *Summary) {
	switch format {
	case FormatJSON:
		httpx.JSON(w, http.StatusOK, summary)
	case FormatCSV:
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="credit-debit-summary.csv"`)
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"Metric", "Value"})
		_ = cw.Write([]string{"Credits", strconv.Itoa(summary.CreditCount)})
		_ = cw.Write([]string{"Debits", strconv.Itoa(summary.DebitCount)})
		_ = cw.Write([]string{"Total Credit", FormatAmount(summary.TotalCredit)})
		_ = cw.Write([]string{"Total Debit", FormatAmount(summary.TotalDebit)})
		_ = cw.Write([]string{"Net", FormatAmount(summary.Net)})
		cw.Flush()
	case FormatPDF:
		h.renderPDF(w, r, "credit-debit-summary.pdf", summaryHTML(summary))
	}
}

func (h *Handler) renderPDF(w http.ResponseWriter, r *http.Request, filename, html string) {
	if h.pdf == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "PDF Unavailable", "no PDF renderer is configured")
		return
	}
	pdf, err := h.pdf.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("render report pdf", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "PDF Rendering Failed", "")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%s", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func registerHTML(register *Register) string {
	var b strings.Builder
	b.WriteString("<html><head><title>Transaction Register</title></head><body>")
	b.WriteString("<h1>Transaction Register</h1>")
	if register.From != "" || register.To != "" {
		fmt.Fprintf(&b, "<p>%s to %s</p>", template.HTMLEscapeString(register.From), template.HTMLEscapeString(register.To))
	}
	b.WriteString("<table border=\"1\"><tr><th>Date</th><th>Type</th><th>Bank</th><th>Contractor</th><th>Particular</th><th>Amount</th></tr>")
	for _, row := range register.Rows {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>",
			template.HTMLEscapeString(row.Date), template.HTMLEscapeString(row.Type),
			template.HTMLEscapeString(row.BankName), template.HTMLEscapeString(row.ContractorName),
			template.HTMLEscapeString(row.Particular), FormatAmount(row.Amount))
	}
	fmt.Fprintf(&b, "<tr><td colspan=\"5\">Total</td><td>%s</td></tr>", FormatAmount(register.Total))
	b.WriteString("</table></body></html>")
	return b.String()
}

func summaryHTML(summary *Summary) string {
	var b strings.Builder
	b.WriteString("<html><head><title>Credit/Debit Summary</title></head><body>")
	b.WriteString("<h1>Credit/Debit Summary</h1>")
	if summary.From != "" || summary.To != "" {
		fmt.Fprintf(&b, "<p>%s to %s</p>", template.HTMLEscapeString(summary.From), template.HTMLEscapeString(summary.To))
	}
	b.WriteString("<table border=\"1\">")
	fmt.Fprintf(&b, "<tr><td>Credits</td><td>%d</td></tr>", summary.CreditCount)
	fmt.Fprintf(&b, "<tr><td>Debits</td><td>%d</td></tr>", summary.DebitCount)
	fmt.Fprintf(&b, "<tr><td>Total Credit</td><td>%s</td></tr>", FormatAmount(summary.TotalCredit))
	fmt.Fprintf(&b, "<tr><td>Total Debit</td><td>%s</td></tr>", FormatAmount(summary.TotalDebit))
	fmt.Fprintf(&b, "<tr><td>Net</td><td>%s</td></tr>", FormatAmount(summary.Net))
	b.WriteString("</table></body></html>")
	return b.String()
}
