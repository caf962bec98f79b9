package rbac

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/councilbooks/councilbooks/internal/shared"
)

func permissionsRouter(authz Authorizer) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/me/permissions", NewPermissionsHandler(nil, authz).MountRoutes)
	return r
}

func TestMyPermissions(t *testing.T) {
	authz := grantAuthorizer{perms: map[string]bool{
		shared.PermViewReports:      true,
		shared.PermViewTransactions: true,
	}}
	rec := httptest.NewRecorder()
	permissionsRouter(authz).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/me/permissions/"))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Permissions []string `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.ElementsMatch(t, []string{shared.PermViewReports, shared.PermViewTransactions}, body.Permissions)
}

func TestMyPermissionsAnonymousGetsEmptyList(t *testing.T) {
	rec := httptest.NewRecorder()
	permissionsRouter(grantAuthorizer{}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me/permissions/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"permissions":[]}`, rec.Body.String())
}

func TestMyPermissionsStoreError(t *testing.T) {
	rec := httptest.NewRecorder()
	permissionsRouter(grantAuthorizer{err: assert.AnError}).
		ServeHTTP(rec, authedRequest(http.MethodGet, "/api/me/permissions/"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
