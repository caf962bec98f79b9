package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/councilbooks/councilbooks/internal/platform/httpx"
	"github.com/councilbooks/councilbooks/internal/shared"
)

// Routes used by browser-path denial redirects.
const (
	LoginRoute        = "/login"
	AccessDeniedRoute = "/access-denied/"
)

// APIPrefix classifies programmatic endpoints. Classification is a plain
// prefix test on the request path, never content negotiation.
const APIPrefix = "/api/"

// Authorizer answers permission and role questions. *Service implements it.
type Authorizer interface {
	ResolvePermissions(ctx context.Context, userID int64) ([]string, error)
	HasPermission(ctx context.Context, userID int64, codename string) (bool, error)
	HasRole(ctx context.Context, userID int64, roleName string) (bool, error)
}

// DenialRecorder counts authorization denials per enforcement stage.
// *observability.Metrics implements it.
type DenialRecorder interface {
	RecordDenial(gate string)
}

// Guard builds per-endpoint authorization middleware. Each guard wraps a
// single handler; guards compose with the pipeline Gate, and a request must
// pass both.
type Guard struct {
	Service Authorizer
	Logger  *slog.Logger
	Metrics DenialRecorder
}

// RequirePermission permits iff the user holds the codename.
func (g Guard) RequirePermission(codename string) func(http.Handler) http.Handler {
	return g.check(func(ctx context.Context, userID int64) (bool, string, error) {
		ok, err := g.Service.HasPermission(ctx, userID, codename)
		return ok, fmt.Sprintf("You do not have permission: %s", codename), err
	})
}

// RequireAnyPermission permits iff at least one codename matches.
func (g Guard) RequireAnyPermission(codenames ...string) func(http.Handler) http.Handler {
	return g.check(func(ctx context.Context, userID int64) (bool, string, error) {
		for _, codename := range codenames {
			ok, err := g.Service.HasPermission(ctx, userID, codename)
			if err != nil {
				return false, "", err
			}
			if ok {
				return true, "", nil
			}
		}
		msg := fmt.Sprintf("You do not have any of these permissions: %s", strings.Join(codenames, ", "))
		return false, msg, nil
	})
}

// RequireAllPermissions permits iff every codename matches; the denial
// message enumerates exactly the missing ones.
func (g Guard) RequireAllPermissions(codenames ...string) func(http.Handler) http.Handler {
	return g.check(func(ctx context.Context, userID int64) (bool, string, error) {
		var missing []string
		for _, codename := range codenames {
			ok, err := g.Service.HasPermission(ctx, userID, codename)
			if err != nil {
				return false, "", err
			}
			if !ok {
				missing = append(missing, codename)
			}
		}
		if len(missing) == 0 {
			return true, "", nil
		}
		msg := fmt.Sprintf("You are missing these permissions: %s", strings.Join(missing, ", "))
		return false, msg, nil
	})
}

// RequireRole permits iff the user holds the named role.
func (g Guard) RequireRole(roleName string) func(http.Handler) http.Handler {
	return g.check(func(ctx context.Context, userID int64) (bool, string, error) {
		ok, err := g.Service.HasRole(ctx, userID, roleName)
		return ok, fmt.Sprintf("You do not have the required role: %s", roleName), err
	})
}

// RequireAnyRole permits iff at least one role matches.
func (g Guard) RequireAnyRole(roleNames ...string) func(http.Handler) http.Handler {
	return g.check(func(ctx context.Context, userID int64) (bool, string, error) {
		for _, roleName := range roleNames {
			ok, err := g.Service.HasRole(ctx, userID, roleName)
			if err != nil {
				return false, "", err
			}
			if ok {
				return true, "", nil
			}
		}
		msg := fmt.Sprintf("You do not have any of these roles: %s", strings.Join(roleNames, ", "))
		return false, msg, nil
	})
}

type predicate func(ctx context.Context, userID int64) (ok bool, denialMessage string, err error)

func (g Guard) check(pred predicate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := shared.IdentityFromContext(r.Context())
			if !id.Authenticated() {
				RespondUnauthenticated(w, r)
				return
			}
			ok, msg, err := pred(r.Context(), id.UserID)
			if err != nil {
				// A store failure during authorization is a server error,
				// never a silent allow.
				if g.Logger != nil {
					g.Logger.Error("rbac guard check", slog.Any("error", err), slog.String("path", r.URL.Path))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if !ok {
				if g.Metrics != nil {
					g.Metrics.RecordDenial("endpoint")
				}
				RespondDenied(w, r, msg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IsAPIPath reports whether the request targets the programmatic API surface.
func IsAPIPath(path string) bool {
	return strings.HasPrefix(path, APIPrefix)
}

// RespondUnauthenticated produces the authentication-required signal: a 401
// JSON body on API paths, a login redirect plus flash on browser paths.
func RespondUnauthenticated(w http.ResponseWriter, r *http.Request) {
	if IsAPIPath(r.URL.Path) {
		httpx.AuthenticationRequired(w, "Please login to access this resource.")
		return
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Please login to access this resource."})
	}
	http.Redirect(w, r, LoginRoute, http.StatusSeeOther)
}

// RespondDenied produces the access-denied signal: a 403 JSON body naming
// the gap on API paths, an access-denied redirect plus flash on browser
// paths.
func RespondDenied(w http.ResponseWriter, r *http.Request, message string) {
	if IsAPIPath(r.URL.Path) {
		httpx.AccessDenied(w, message)
		return
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "You do not have permission to access this resource."})
	}
	http.Redirect(w, r, AccessDeniedRoute, http.StatusSeeOther)
}
