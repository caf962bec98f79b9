package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/councilbooks/councilbooks/internal/shared"
)

func TestResolvePermissionsUnionAcrossRoles(t *testing.T) {
	repo := newMockRepo()
	auditor := repo.addRole(shared.RoleAuditor, true)
	clerk := repo.addRole(shared.RoleClerk, true)
	repo.grant(auditor.ID, shared.PermViewReports, shared.PermViewTransactions)
	repo.grant(clerk.ID, shared.PermViewTransactions, shared.PermAddTransactions)
	repo.assign(7, auditor.ID, true)
	repo.assign(7, clerk.ID, true)

	svc := NewService(repo)
	perms, err := svc.ResolvePermissions(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []string{
		shared.PermAddTransactions,
		shared.PermViewReports,
		shared.PermViewTransactions,
	}, perms)
}

func TestResolvePermissionsLegacyFallback(t *testing.T) {
	repo := newMockRepo()
	auditor := repo.addRole(shared.RoleAuditor, true)
	repo.grant(auditor.ID, shared.PermViewReports, shared.PermViewTransactions)
	repo.userLegacy[9] = 3 // Auditor

	svc := NewService(repo)
	perms, err := svc.ResolvePermissions(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, []string{shared.PermViewReports, shared.PermViewTransactions}, perms)
}

func TestResolvePermissionsExplicitSuppressesLegacy(t *testing.T) {
	// A user holding an explicit assignment never inherits from the legacy
	// integer, even when the legacy role would grant more.
	repo := newMockRepo()
	chief := repo.addRole(shared.RoleChiefOfficer, true)
	clerk := repo.addRole(shared.RoleClerk, true)
	repo.grant(chief.ID, shared.PermDeleteUsers, shared.PermViewUsers)
	repo.grant(clerk.ID, shared.PermViewTransactions)
	repo.assign(4, clerk.ID, true)
	repo.userLegacy[4] = 1 // Chief Officer

	svc := NewService(repo)
	perms, err := svc.ResolvePermissions(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, []string{shared.PermViewTransactions}, perms)

	ok, err := svc.HasPermission(context.Background(), 4, shared.PermDeleteUsers)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolvePermissionsInactiveAssignmentIgnored(t *testing.T) {
	repo := newMockRepo()
	chief := repo.addRole(shared.RoleChiefOfficer, true)
	clerk := repo.addRole(shared.RoleClerk, true)
	repo.grant(chief.ID, shared.PermDeleteUsers)
	repo.grant(clerk.ID, shared.PermViewTransactions)
	repo.assign(5, chief.ID, false)
	repo.userLegacy[5] = 4 // Clerk

	svc := NewService(repo)
	perms, err := svc.ResolvePermissions(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []string{shared.PermViewTransactions}, perms)
}

func TestResolvePermissionsUnresolvableUserEmptySet(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	perms, err := svc.ResolvePermissions(context.Background(), 404)
	require.NoError(t, err)
	require.NotNil(t, perms)
	assert.Empty(t, perms)
}

func TestResolvePermissionsUnknownLegacyInteger(t *testing.T) {
	repo := newMockRepo()
	repo.userLegacy[6] = 99

	svc := NewService(repo)
	perms, err := svc.ResolvePermissions(context.Background(), 6)
	require.NoError(t, err)
	assert.Empty(t, perms)
}

func TestResolvePermissionsRepositoryError(t *testing.T) {
	repo := newMockRepo()
	repo.failErr = errors.New("connection reset")

	svc := NewService(repo)
	_, err := svc.ResolvePermissions(context.Background(), 1)
	assert.Error(t, err)
}

func TestHasPermissionShortCircuit(t *testing.T) {
	repo := newMockRepo()
	auditor := repo.addRole(shared.RoleAuditor, true)
	repo.grant(auditor.ID, shared.PermViewReports)
	repo.assign(2, auditor.ID, true)

	svc := NewService(repo)

	ok, err := svc.HasPermission(context.Background(), 2, shared.PermViewReports)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasPermission(context.Background(), 2, shared.PermDeleteUsers)
	require.NoError(t, err)
	assert.False(t, ok)

	// Unknown codenames report false, never an error.
	ok, err = svc.HasPermission(context.Background(), 2, "launch_missiles")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasRoleExplicitAssignment(t *testing.T) {
	repo := newMockRepo()
	auditor := repo.addRole(shared.RoleAuditor, true)
	repo.assign(3, auditor.ID, true)
	repo.userLegacy[3] = 1 // Chief Officer; must be ignored

	svc := NewService(repo)

	ok, err := svc.HasRole(context.Background(), 3, shared.RoleAuditor)
	require.NoError(t, err)
	assert.True(t, ok)

	// Explicit assignments suppress the legacy integer entirely.
	ok, err = svc.HasRole(context.Background(), 3, shared.RoleChiefOfficer)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasRoleLegacyFallback(t *testing.T) {
	repo := newMockRepo()
	repo.addRole(shared.RoleAccountantOfficer, true)
	repo.userLegacy[8] = 2

	svc := NewService(repo)

	ok, err := svc.HasRole(context.Background(), 8, shared.RoleAccountantOfficer)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasRole(context.Background(), 8, shared.RoleClerk)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListActiveRolesFiltersInactive(t *testing.T) {
	repo := newMockRepo()
	repo.addRole(shared.RoleClerk, true)
	repo.addRole("Retired Role", false)

	svc := NewService(repo)
	roles, err := svc.ListActiveRoles(context.Background())
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, shared.RoleClerk, roles[0].Name)
}

func TestAssignLegacyRole(t *testing.T) {
	repo := newMockRepo()
	clerk := repo.addRole(shared.RoleClerk, true)
	svc := NewService(repo)

	require.NoError(t, svc.AssignLegacyRole(context.Background(), 11, 4))
	assert.True(t, repo.userRoles[11][clerk.ID])

	// Re-assigning is idempotent.
	require.NoError(t, svc.AssignLegacyRole(context.Background(), 11, 4))
	assert.True(t, repo.userRoles[11][clerk.ID])
}

func TestAssignLegacyRoleUnknownIntegerNoop(t *testing.T) {
	repo := newMockRepo()
	repo.addRole(shared.RoleClerk, true)
	svc := NewService(repo)

	require.NoError(t, svc.AssignLegacyRole(context.Background(), 12, 42))
	assert.Empty(t, repo.userRoles[12])
}

func TestAssignLegacyRoleMissingRoleNoop(t *testing.T) {
	// Legacy integer is known but the role row has not been seeded yet.
	repo := newMockRepo()
	svc := NewService(repo)

	require.NoError(t, svc.AssignLegacyRole(context.Background(), 13, 1))
	assert.Empty(t, repo.userRoles[13])
}

func TestAssignLegacyRoleReactivatesInactiveLink(t *testing.T) {
	repo := newMockRepo()
	chief := repo.addRole(shared.RoleChiefOfficer, true)
	repo.assign(14, chief.ID, false)

	svc := NewService(repo)
	require.NoError(t, svc.AssignLegacyRole(context.Background(), 14, 1))
	assert.True(t, repo.userRoles[14][chief.ID])
}

func TestAssignLegacyRoleRetiresStaleAssignments(t *testing.T) {
	// Changing the legacy integer must move the explicit tier with it:
	// the old assignment goes inactive, the new one becomes active.
	repo := newMockRepo()
	clerk := repo.addRole(shared.RoleClerk, true)
	chief := repo.addRole(shared.RoleChiefOfficer, true)
	repo.assign(15, clerk.ID, true)

	svc := NewService(repo)
	require.NoError(t, svc.AssignLegacyRole(context.Background(), 15, 1))
	assert.False(t, repo.userRoles[15][clerk.ID])
	assert.True(t, repo.userRoles[15][chief.ID])
}

func TestAssignLegacyRoleKeepsExtraRolesWhenTargetHeld(t *testing.T) {
	// When the target role is already among the user's active assignments,
	// admin-granted extra roles survive the sync untouched.
	repo := newMockRepo()
	clerk := repo.addRole(shared.RoleClerk, true)
	auditor := repo.addRole(shared.RoleAuditor, true)
	repo.assign(16, clerk.ID, true)
	repo.assign(16, auditor.ID, true)

	svc := NewService(repo)
	require.NoError(t, svc.AssignLegacyRole(context.Background(), 16, 4))
	assert.True(t, repo.userRoles[16][clerk.ID])
	assert.True(t, repo.userRoles[16][auditor.ID])
}
