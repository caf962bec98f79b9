package rbac

import (
	"context"
	"log/slog"

	"github.com/councilbooks/councilbooks/internal/shared"
)

// Bootstrap runs the one-shot administrative procedures: catalog seeding
// and legacy user-role backfill. Neither is part of the request hot path.
type Bootstrap struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewBootstrap constructs a Bootstrap.
func NewBootstrap(repo RepositoryPort, logger *slog.Logger) *Bootstrap {
	return &Bootstrap{repo: repo, logger: logger}
}

// SeedReport summarises a SeedCatalog run.
type SeedReport struct {
	PermissionsCreated int
	RolesCreated       int
	GrantsAdded        int
	GrantsRemoved      int
}

// SeedCatalog idempotently ensures the permission and role catalogs exist
// and reconciles each role's grants against the desired set: missing
// role_permissions rows are created, extra ones deleted. Permissions and
// roles themselves are never deleted.
func (b *Bootstrap) SeedCatalog(ctx context.Context) (SeedReport, error) {
	var report SeedReport

	for _, spec := range shared.PermissionCatalog() {
		_, created, err := b.repo.EnsurePermission(ctx, spec)
		if err != nil {
			return report, err
		}
		if created {
			report.PermissionsCreated++
			if b.logger != nil {
				b.logger.Info("created permission", slog.String("codename", spec.Codename))
			}
		}
	}

	for _, roleSpec := range shared.RoleCatalog() {
		role, created, err := b.repo.EnsureRole(ctx, roleSpec.Name, roleSpec.Description)
		if err != nil {
			return report, err
		}
		if created {
			report.RolesCreated++
			if b.logger != nil {
				b.logger.Info("created role", slog.String("name", role.Name))
			}
		}

		desired := make(map[string]struct{}, len(roleSpec.Permissions))
		for _, codename := range roleSpec.Permissions {
			desired[codename] = struct{}{}
		}

		current, err := b.repo.RolePermissionCodenames(ctx, role.ID)
		if err != nil {
			return report, err
		}
		existing := make(map[string]struct{}, len(current))
		for _, codename := range current {
			existing[codename] = struct{}{}
		}

		for codename := range desired {
			if _, ok := existing[codename]; ok {
				continue
			}
			if err := b.repo.AttachPermission(ctx, role.ID, codename); err != nil {
				return report, err
			}
			report.GrantsAdded++
		}
		for codename := range existing {
			if _, ok := desired[codename]; ok {
				continue
			}
			if err := b.repo.DetachPermission(ctx, role.ID, codename); err != nil {
				return report, err
			}
			report.GrantsRemoved++
			if b.logger != nil {
				b.logger.Info("removed extra grant", slog.String("role", role.Name), slog.String("codename", codename))
			}
		}
	}

	return report, nil
}

// SyncReport summarises a SyncUserRoles run.
type SyncReport struct {
	Created   int
	Activated int
	Skipped   int
}

// SyncUserRoles backfills user_roles from each user's legacy integer role,
// re-activating inactive links and never duplicating existing ones. Users
// with an unknown integer, or whose mapped role does not exist, are
// skipped.
func (b *Bootstrap) SyncUserRoles(ctx context.Context) (SyncReport, error) {
	var report SyncReport

	legacyRoles, err := b.repo.ListUserLegacyRoles(ctx)
	if err != nil {
		return report, err
	}

	roleIDs := make(map[string]int64)
	for userID, legacy := range legacyRoles {
		name, ok := shared.LegacyRoleName(legacy)
		if !ok {
			report.Skipped++
			continue
		}
		roleID, ok := roleIDs[name]
		if !ok {
			role, err := b.repo.ActiveRoleByName(ctx, name)
			if err != nil {
				if b.logger != nil {
					b.logger.Warn("role not found, user skipped", slog.String("role", name), slog.Int64("user_id", userID))
				}
				report.Skipped++
				continue
			}
			roleID = role.ID
			roleIDs[name] = roleID
		}

		created, activated, err := b.repo.EnsureUserRole(ctx, userID, roleID)
		if err != nil {
			return report, err
		}
		switch {
		case created:
			report.Created++
		case activated:
			report.Activated++
		default:
			report.Skipped++
		}
	}

	return report, nil
}
