package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/councilbooks/councilbooks/internal/shared"
)

func TestSeedCatalogFreshDatabase(t *testing.T) {
	repo := newMockRepo()
	boot := NewBootstrap(repo, nil)

	report, err := boot.SeedCatalog(context.Background())
	require.NoError(t, err)

	assert.Equal(t, len(shared.PermissionCatalog()), report.PermissionsCreated)
	assert.Equal(t, len(shared.RoleCatalog()), report.RolesCreated)
	assert.Zero(t, report.GrantsRemoved)

	wantGrants := 0
	for _, roleSpec := range shared.RoleCatalog() {
		wantGrants += len(roleSpec.Permissions)
	}
	assert.Equal(t, wantGrants, report.GrantsAdded)

	// Clerk ends up with exactly its declared set.
	clerk, err := repo.ActiveRoleByName(context.Background(), shared.RoleClerk)
	require.NoError(t, err)
	codenames, err := repo.RolePermissionCodenames(context.Background(), clerk.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		shared.PermViewTransactions,
		shared.PermViewReports,
		shared.PermExportReports,
	}, codenames)
}

func TestSeedCatalogIdempotent(t *testing.T) {
	repo := newMockRepo()
	boot := NewBootstrap(repo, nil)

	_, err := boot.SeedCatalog(context.Background())
	require.NoError(t, err)

	second, err := boot.SeedCatalog(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.PermissionsCreated)
	assert.Zero(t, second.RolesCreated)
	assert.Zero(t, second.GrantsAdded)
	assert.Zero(t, second.GrantsRemoved)
}

func TestSeedCatalogReconcilesExtraGrants(t *testing.T) {
	repo := newMockRepo()
	boot := NewBootstrap(repo, nil)

	_, err := boot.SeedCatalog(context.Background())
	require.NoError(t, err)

	// Grant the Clerk something an operator added out of band.
	clerk, err := repo.ActiveRoleByName(context.Background(), shared.RoleClerk)
	require.NoError(t, err)
	repo.grant(clerk.ID, shared.PermDeleteUsers)

	report, err := boot.SeedCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.GrantsRemoved)

	ok, err := repo.RoleHasPermission(context.Background(), clerk.ID, shared.PermDeleteUsers)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSeedCatalogNeverDeletesRolesOrPermissions(t *testing.T) {
	repo := newMockRepo()
	boot := NewBootstrap(repo, nil)

	_, err := boot.SeedCatalog(context.Background())
	require.NoError(t, err)

	// A permission outside the catalog survives reconciliation.
	repo.addPermission("custom_report_hook")
	repo.addRole("Consultant", true)

	_, err = boot.SeedCatalog(context.Background())
	require.NoError(t, err)

	perms, err := repo.ListPermissions(context.Background())
	require.NoError(t, err)
	found := false
	for _, p := range perms {
		if p.Codename == "custom_report_hook" {
			found = true
		}
	}
	assert.True(t, found)

	_, err = repo.ActiveRoleByName(context.Background(), "Consultant")
	assert.NoError(t, err)
}

func TestSeedCatalogKeepsExistingPermissionFields(t *testing.T) {
	repo := newMockRepo()
	existing := repo.addPermission(shared.PermViewUsers)
	existing.Name = "Renamed by an operator"

	boot := NewBootstrap(repo, nil)
	_, err := boot.SeedCatalog(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Renamed by an operator", repo.perms[shared.PermViewUsers].Name)
}

func TestSyncUserRoles(t *testing.T) {
	repo := newMockRepo()
	chief := repo.addRole(shared.RoleChiefOfficer, true)
	clerk := repo.addRole(shared.RoleClerk, true)

	repo.userLegacy[1] = 1 // no link yet -> created
	repo.userLegacy[2] = 4 // inactive link -> activated
	repo.assign(2, clerk.ID, false)
	repo.userLegacy[3] = 4 // active link -> skipped
	repo.assign(3, clerk.ID, true)
	repo.userLegacy[4] = 77 // unknown integer -> skipped
	repo.userLegacy[5] = 2  // Accountant Officer role not seeded -> skipped

	boot := NewBootstrap(repo, nil)
	report, err := boot.SyncUserRoles(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Activated)
	assert.Equal(t, 3, report.Skipped)

	assert.True(t, repo.userRoles[1][chief.ID])
	assert.True(t, repo.userRoles[2][clerk.ID])
}

func TestSyncUserRolesIdempotent(t *testing.T) {
	repo := newMockRepo()
	repo.addRole(shared.RoleClerk, true)
	repo.userLegacy[1] = 4

	boot := NewBootstrap(repo, nil)
	first, err := boot.SyncUserRoles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	second, err := boot.SyncUserRoles(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.Created)
	assert.Zero(t, second.Activated)
	assert.Equal(t, 1, second.Skipped)
}
