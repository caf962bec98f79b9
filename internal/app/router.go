package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/councilbooks/councilbooks/internal/auth"
	"github.com/councilbooks/councilbooks/internal/backup"
	"github.com/councilbooks/councilbooks/internal/banks"
	"github.com/councilbooks/councilbooks/internal/contractors"
	"github.com/councilbooks/councilbooks/internal/observability"
	"github.com/councilbooks/councilbooks/internal/rbac"
	"github.com/councilbooks/councilbooks/internal/reports"
	"github.com/councilbooks/councilbooks/internal/settings"
	"github.com/councilbooks/councilbooks/internal/shared"
	"github.com/councilbooks/councilbooks/internal/transactions"
	"github.com/councilbooks/councilbooks/internal/users"
	"github.com/councilbooks/councilbooks/internal/view"
	"github.com/councilbooks/councilbooks/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	AuthService    *auth.Service
	Guard          rbac.Guard
	Gate           *rbac.Gate
	Metrics        *observability.Metrics

	AuthHandler         *auth.Handler
	PermissionsHandler  *rbac.PermissionsHandler
	RolesHandler        *rbac.RolesHandler
	UsersHandler        *users.Handler
	BanksHandler        *banks.Handler
	ContractorsHandler  *contractors.Handler
	TransactionsHandler *transactions.Handler
	SettingsHandler     *settings.Handler
	ReportsHandler      *reports.Handler
	BackupHandler       *backup.Handler
}

// NewRouter constructs the chi.Router with councilbooks defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		AuthService:    params.AuthService,
		Gate:           params.Gate,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		id := shared.IdentityFromContext(r.Context())
		if !id.Authenticated() {
			http.Redirect(w, r, rbac.LoginRoute, http.StatusSeeOther)
			return
		}
		renderPage(params, w, r, "pages/home.html", "CouncilBooks", map[string]any{
			"Username": id.Username,
		})
	})

	r.Get(rbac.AccessDeniedRoute, func(w http.ResponseWriter, r *http.Request) {
		renderPage(params, w, r, "pages/access_denied.html", "Access Denied", nil)
	})

	params.AuthHandler.MountBrowserRoutes(r)

	r.Route("/api", func(r chi.Router) {
		params.AuthHandler.MountAPIRoutes(r)
		r.Route("/me/permissions", params.PermissionsHandler.MountRoutes)
		r.Route("/roles", params.RolesHandler.MountRoutes)
		r.Route("/users", func(r chi.Router) {
			params.UsersHandler.MountRoutes(r, params.Guard)
		})
		r.Route("/bank-accounts", func(r chi.Router) {
			params.BanksHandler.MountRoutes(r, params.Guard)
		})
		r.Route("/contractors", func(r chi.Router) {
			params.ContractorsHandler.MountRoutes(r, params.Guard)
		})
		r.Route("/transactions", func(r chi.Router) {
			params.TransactionsHandler.MountRoutes(r, params.Guard)
		})
		r.Route("/settings", func(r chi.Router) {
			params.SettingsHandler.MountRoutes(r, params.Guard)
		})
		r.Route("/reports", func(r chi.Router) {
			params.ReportsHandler.MountRoutes(r, params.Guard)
		})
		r.Route("/backup", func(r chi.Router) {
			params.BackupHandler.MountRoutes(r, params.Guard)
		})
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

func renderPage(params RouterParams, w http.ResponseWriter, r *http.Request, page, title string, data map[string]any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	err := params.Templates.Render(w, page, view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	})
	if err != nil {
		params.Logger.Error("render page", slog.String("page", page), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
