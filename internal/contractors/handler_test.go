package contractors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/councilbooks/councilbooks/internal/rbac"
	"github.com/councilbooks/councilbooks/internal/shared"
)

// permAuthorizer answers HasPermission from a fixed set.
type permAuthorizer struct {
	perms map[string]bool
}

func (a permAuthorizer) ResolvePermissions(context.Context, int64) ([]string, error) {
	return nil, nil
}

func (a permAuthorizer) HasPermission(_ context.Context, _ int64, codename string) (bool, error) {
	return a.perms[codename], nil
}

func (a permAuthorizer) HasRole(context.Context, int64, string) (bool, error) {
	return false, nil
}

func newContractorsRouter(repo *mockRepository, relabeler Relabeler, perms map[string]bool) http.Handler {
	handler := NewHandler(NewService(repo, relabeler, nil, nil))
	r := chi.NewRouter()
	r.Route("/api/contractors", func(r chi.Router) {
		handler.MountRoutes(r, rbac.Guard{Service: permAuthorizer{perms: perms}})
	})
	return r
}

func authedPost(target, body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	return r.WithContext(shared.ContextWithIdentity(r.Context(), &shared.Identity{UserID: 1}))
}

func TestBulkDeleteRequiresDeletePermission(t *testing.T) {
	router := newContractorsRouter(newMockRepository(), nil, map[string]bool{shared.PermViewContractors: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedPost("/api/contractors/bulk-delete/", `{"ids": [1]}`))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "You do not have permission: delete_contractors", body["message"])
}

func TestBulkDeleteEndpointStampsAndDeletes(t *testing.T) {
	repo := newMockRepository()
	relabeler := &recordingRelabeler{}
	first, err := repo.Create(context.Background(), Contractor{Name: "Shree Constructions"})
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), Contractor{Name: "Patil Builders"})
	require.NoError(t, err)
	router := newContractorsRouter(repo, relabeler, map[string]bool{shared.PermDeleteContractors: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedPost("/api/contractors/bulk-delete/", `{"ids": [1, 2]}`))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Contractors deleted", body["message"])
	assert.Equal(t, float64(2), body["deleted"])
	assert.Equal(t, "Shree Constructions", relabeler.labels[first.ID])
	assert.Empty(t, repo.rows)
}
