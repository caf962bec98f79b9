package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/councilbooks/councilbooks/internal/shared"
)

// IdentityMiddleware attaches the authenticated identity to the request
// context. API requests carry a bearer token; browser requests carry the
// session cookie. Inactive accounts and bad tokens resolve to anonymous;
// authentication failures are enforced by the guards, not here.
func IdentityMiddleware(service *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := bearerUserID(service, r)
			if userID == 0 {
				if sess := shared.SessionFromContext(r.Context()); sess != nil {
					userID = sess.UserID()
				}
			}
			if userID == 0 {
				next.ServeHTTP(w, r)
				return
			}
			user, err := service.LookupUser(r.Context(), userID)
			if err != nil || !user.Active() {
				if err != nil && logger != nil {
					logger.Warn("identity lookup", slog.Int64("user_id", userID), slog.Any("error", err))
				}
				next.ServeHTTP(w, r)
				return
			}
			id := &shared.Identity{
				UserID:     user.ID,
				Username:   user.Username,
				LegacyRole: user.LegacyRole,
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), id)))
		})
	}
}

func bearerUserID(service *Service, r *http.Request) int64 {
	header := r.Header.Get("Authorization")
	if header == "" {
		return 0
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return 0
	}
	userID, err := service.VerifyToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0
	}
	return userID
}
