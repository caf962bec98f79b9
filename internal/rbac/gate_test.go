package rbac

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/councilbooks/councilbooks/internal/shared"
)

// grantAuthorizer answers HasPermission from a fixed set.
type grantAuthorizer struct {
	perms map[string]bool
	err   error
}

func (a grantAuthorizer) ResolvePermissions(context.Context, int64) ([]string, error) {
	if a.err != nil {
		return nil, a.err
	}
	out := make([]string, 0, len(a.perms))
	for codename, ok := range a.perms {
		if ok {
			out = append(out, codename)
		}
	}
	return out, nil
}

func (a grantAuthorizer) HasPermission(_ context.Context, _ int64, codename string) (bool, error) {
	if a.err != nil {
		return false, a.err
	}
	return a.perms[codename], nil
}

func (a grantAuthorizer) HasRole(context.Context, int64, string) (bool, error) {
	return false, a.err
}

func authedRequest(method, target string) *http.Request {
	r := httptest.NewRequest(method, target, nil)
	return r.WithContext(shared.ContextWithIdentity(r.Context(), &shared.Identity{UserID: 1, Username: "tester"}))
}

func passThrough() (http.Handler, *bool) {
	reached := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}), &reached
}

func TestNewGateRejectsBadRules(t *testing.T) {
	_, err := NewGate(grantAuthorizer{}, nil, []Rule{{Prefix: ""}}, nil)
	assert.Error(t, err)

	_, err = NewGate(grantAuthorizer{}, nil, []Rule{
		{Prefix: "/api/users/"},
		{Prefix: "/api/users/"},
	}, nil)
	assert.Error(t, err)
}

func TestGateDeniesMissingPermission(t *testing.T) {
	gate, err := NewGate(grantAuthorizer{perms: map[string]bool{}}, nil, DefaultRules(), DefaultSkipPrefixes())
	require.NoError(t, err)

	next, reached := passThrough()
	rec := httptest.NewRecorder()
	gate.Middleware(next).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/users/"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, *reached)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Access Denied", body["error"])
	assert.Equal(t, "You do not have permission to access this resource.", body["message"])
}

// denialCounter records RecordDenial calls per stage label.
type denialCounter struct {
	byStage map[string]int
}

func newDenialCounter() *denialCounter {
	return &denialCounter{byStage: make(map[string]int)}
}

func (c *denialCounter) RecordDenial(stage string) {
	c.byStage[stage]++
}

func TestGateCountsDenials(t *testing.T) {
	gate, err := NewGate(grantAuthorizer{perms: map[string]bool{}}, nil, DefaultRules(), DefaultSkipPrefixes())
	require.NoError(t, err)
	counter := newDenialCounter()
	gate.UseMetrics(counter)

	next, _ := passThrough()
	rec := httptest.NewRecorder()
	gate.Middleware(next).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/users/"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 1, counter.byStage["pipeline"])

	// Allowed and skipped requests leave the counter alone.
	rec = httptest.NewRecorder()
	gate.Middleware(next).ServeHTTP(rec, authedRequest(http.MethodGet, "/static/css/site.css"))
	assert.Equal(t, 1, counter.byStage["pipeline"])
}

func TestGateAllowsGrantedPermission(t *testing.T) {
	authz := grantAuthorizer{perms: map[string]bool{shared.PermViewUsers: true}}
	gate, err := NewGate(authz, nil, DefaultRules(), DefaultSkipPrefixes())
	require.NoError(t, err)

	next, reached := passThrough()
	rec := httptest.NewRecorder()
	gate.Middleware(next).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/users/"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, *reached)
}

func TestGateSkipPrefixesBypassChecks(t *testing.T) {
	gate, err := NewGate(grantAuthorizer{perms: map[string]bool{}}, nil, DefaultRules(), DefaultSkipPrefixes())
	require.NoError(t, err)

	for _, target := range []string{"/api/auth/login/", "/static/css/site.css", "/access-denied/"} {
		next, reached := passThrough()
		rec := httptest.NewRecorder()
		gate.Middleware(next).ServeHTTP(rec, authedRequest(http.MethodGet, target))
		assert.True(t, *reached, "expected %s to bypass the gate", target)
	}
}

func TestGateAnonymousPassesThrough(t *testing.T) {
	// Authentication is the guards' job; the gate only refines authorization.
	gate, err := NewGate(grantAuthorizer{perms: map[string]bool{}}, nil, DefaultRules(), DefaultSkipPrefixes())
	require.NoError(t, err)

	next, reached := passThrough()
	rec := httptest.NewRecorder()
	gate.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/", nil))

	assert.True(t, *reached)
}

func TestGateNonAPIPathsPassThrough(t *testing.T) {
	gate, err := NewGate(grantAuthorizer{perms: map[string]bool{}}, nil, DefaultRules(), DefaultSkipPrefixes())
	require.NoError(t, err)

	next, reached := passThrough()
	rec := httptest.NewRecorder()
	gate.Middleware(next).ServeHTTP(rec, authedRequest(http.MethodGet, "/reports/monthly/"))

	assert.True(t, *reached)
}

func TestGateLongestPrefixWins(t *testing.T) {
	// /api/settings/image-path/ is nested under /api/settings/ and maps GET
	// to no permission at all.
	gate, err := NewGate(grantAuthorizer{perms: map[string]bool{}}, nil, DefaultRules(), DefaultSkipPrefixes())
	require.NoError(t, err)

	next, reached := passThrough()
	rec := httptest.NewRecorder()
	gate.Middleware(next).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/settings/image-path/"))
	assert.True(t, *reached, "image-path GET must not require view_settings")

	next, reached = passThrough()
	rec = httptest.NewRecorder()
	gate.Middleware(next).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/settings/"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, *reached)
}

func TestGateDeclarationOrderIrrelevant(t *testing.T) {
	rules := []Rule{
		{Prefix: "/api/things/", Methods: map[string]string{http.MethodGet: "view_things"}},
		{Prefix: "/api/things/special/", Methods: map[string]string{http.MethodGet: ""}},
	}
	for _, ordered := range [][]Rule{rules, {rules[1], rules[0]}} {
		gate, err := NewGate(grantAuthorizer{perms: map[string]bool{}}, nil, ordered, nil)
		require.NoError(t, err)

		next, reached := passThrough()
		rec := httptest.NewRecorder()
		gate.Middleware(next).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/things/special/"))
		assert.True(t, *reached)
	}
}

func TestGateUncoveredMethodPasses(t *testing.T) {
	// The reports rule only maps GET; other verbs carry no gate requirement.
	gate, err := NewGate(grantAuthorizer{perms: map[string]bool{}}, nil, DefaultRules(), DefaultSkipPrefixes())
	require.NoError(t, err)

	next, reached := passThrough()
	rec := httptest.NewRecorder()
	gate.Middleware(next).ServeHTTP(rec, authedRequest(http.MethodDelete, "/api/reports/"))

	assert.True(t, *reached)
}

func TestGateStoreErrorIsServerError(t *testing.T) {
	gate, err := NewGate(grantAuthorizer{err: assert.AnError}, nil, DefaultRules(), DefaultSkipPrefixes())
	require.NoError(t, err)

	next, reached := passThrough()
	rec := httptest.NewRecorder()
	gate.Middleware(next).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/users/"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, *reached)
}
