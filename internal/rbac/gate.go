package rbac

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/councilbooks/councilbooks/internal/platform/httpx"
	"github.com/councilbooks/councilbooks/internal/shared"
)

// Rule maps a URL prefix to per-method required permissions. An empty
// permission string means the method needs no permission.
type Rule struct {
	Prefix  string
	Methods map[string]string
}

// Gate is the request-pipeline enforcement stage. It runs once per inbound
// request, before routing, and is independent of the per-endpoint guards:
// either gate can deny a request the other would allow, and the effective
// requirement of an endpoint is the AND of both.
type Gate struct {
	service Authorizer
	logger  *slog.Logger
	metrics DenialRecorder
	rules   []Rule
	skip    []string
}

// NewGate validates and orders the rule table. Duplicate prefixes are a
// configuration error; rules are sorted longest-prefix-first so that
// overlap resolves by specificity rather than declaration order.
func NewGate(service Authorizer, logger *slog.Logger, rules []Rule, skipPrefixes []string) (*Gate, error) {
	seen := make(map[string]struct{}, len(rules))
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	for _, rule := range ordered {
		if rule.Prefix == "" {
			return nil, fmt.Errorf("rbac: gate rule with empty prefix")
		}
		if _, dup := seen[rule.Prefix]; dup {
			return nil, fmt.Errorf("rbac: duplicate gate rule prefix %q", rule.Prefix)
		}
		seen[rule.Prefix] = struct{}{}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].Prefix) > len(ordered[j].Prefix)
	})
	return &Gate{service: service, logger: logger, rules: ordered, skip: skipPrefixes}, nil
}

// UseMetrics installs a denial recorder; nil leaves denials uncounted.
func (g *Gate) UseMetrics(rec DenialRecorder) {
	g.metrics = rec
}

// Middleware returns the pipeline stage handler.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.shouldSkip(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		id := shared.IdentityFromContext(r.Context())
		if !id.Authenticated() {
			// Authentication is enforced elsewhere; anonymous requests pass
			// through untouched.
			next.ServeHTTP(w, r)
			return
		}
		if !IsAPIPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		required, found := g.requiredPermission(r.URL.Path, r.Method)
		if !found || required == "" {
			next.ServeHTTP(w, r)
			return
		}
		ok, err := g.service.HasPermission(r.Context(), id.UserID, required)
		if err != nil {
			if g.logger != nil {
				g.logger.Error("rbac gate check", slog.Any("error", err), slog.String("path", r.URL.Path))
			}
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		if !ok {
			if g.metrics != nil {
				g.metrics.RecordDenial("pipeline")
			}
			httpx.AccessDenied(w, "You do not have permission to access this resource.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gate) shouldSkip(path string) bool {
	for _, prefix := range g.skip {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// requiredPermission resolves the rule for a path and method: an exact
// prefix match wins, otherwise the longest matching prefix. The second
// return is false when no rule covers the path at all.
func (g *Gate) requiredPermission(path, method string) (string, bool) {
	for _, rule := range g.rules {
		if rule.Prefix == path {
			return rule.Methods[method], true
		}
	}
	for _, rule := range g.rules {
		if strings.HasPrefix(path, rule.Prefix) {
			return rule.Methods[method], true
		}
	}
	return "", false
}

// DefaultSkipPrefixes lists paths the gate never checks: the admin
// interface, auth endpoints, static assets and the access-denied page
// itself.
func DefaultSkipPrefixes() []string {
	return []string{
		"/admin/",
		"/api/auth/",
		"/api/token/",
		"/api/login/",
		"/api/logout/",
		"/static/",
		"/media/",
		"/access-denied/",
	}
}

// DefaultRules returns the URL-prefix permission table for the API surface.
// The backup restore permission is intentionally absent: restore_data is
// checked inside the backup handler.
func DefaultRules() []Rule {
	crud := func(view, add, edit, del string) map[string]string {
		return map[string]string{
			http.MethodGet:    view,
			http.MethodPost:   add,
			http.MethodPut:    edit,
			http.MethodPatch:  edit,
			http.MethodDelete: del,
		}
	}
	return []Rule{
		{Prefix: "/api/users/", Methods: crud(shared.PermViewUsers, shared.PermAddUsers, shared.PermEditUsers, shared.PermDeleteUsers)},
		{Prefix: "/api/transactions/", Methods: crud(shared.PermViewTransactions, shared.PermAddTransactions, shared.PermEditTransactions, shared.PermDeleteTransactions)},
		{Prefix: "/api/bank-accounts/", Methods: crud(shared.PermViewBanks, shared.PermAddBanks, shared.PermEditBanks, shared.PermDeleteBanks)},
		{Prefix: "/api/contractors/", Methods: crud(shared.PermViewContractors, shared.PermAddContractors, shared.PermEditContractors, shared.PermDeleteContractors)},
		{Prefix: "/api/settings/", Methods: map[string]string{
			http.MethodGet:    shared.PermViewSettings,
			http.MethodPost:   shared.PermEditSettings,
			http.MethodPut:    shared.PermEditSettings,
			http.MethodPatch:  shared.PermEditSettings,
			http.MethodDelete: shared.PermEditSettings,
		}},
		{Prefix: "/api/settings/image-path/", Methods: map[string]string{
			http.MethodGet: "",
		}},
		{Prefix: "/api/reports/", Methods: map[string]string{
			http.MethodGet: shared.PermViewReports,
		}},
		{Prefix: "/api/backup/", Methods: map[string]string{
			http.MethodPost: shared.PermBackupData,
		}},
	}
}
