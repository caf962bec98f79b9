package rbac

import (
	"context"
	"errors"

	"github.com/councilbooks/councilbooks/internal/shared"
)

// Service answers permission and role questions for users.
//
// Resolution is two-tier with a fixed precedence: explicit active role
// assignments win; the legacy integer role field on the user record is
// consulted only when the user has zero active assignments. All three entry
// points (ResolvePermissions, HasPermission, HasRole) apply the same rule.
// Results are never cached; every call re-queries the store.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ResolvePermissions computes the user's effective permission set: the
// de-duplicated, sorted union of codenames across all active role
// assignments, or the legacy-mapped role's set when none exist. A user with
// no resolvable role gets an empty set, not an error.
func (s *Service) ResolvePermissions(ctx context.Context, userID int64) ([]string, error) {
	roleIDs, err := s.effectiveRoleIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(roleIDs) == 0 {
		return []string{}, nil
	}
	perms, err := s.repo.PermissionCodenames(ctx, roleIDs)
	if err != nil {
		return nil, err
	}
	if perms == nil {
		perms = []string{}
	}
	return perms, nil
}

// HasPermission reports whether any of the user's effective roles grants
// the codename. It checks role by role and short-circuits on the first
// match rather than materialising the full set. Unknown codenames report
// false, never an error.
func (s *Service) HasPermission(ctx context.Context, userID int64, codename string) (bool, error) {
	roleIDs, err := s.effectiveRoleIDs(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, roleID := range roleIDs {
		ok, err := s.repo.RoleHasPermission(ctx, roleID, codename)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// HasRole reports whether the user holds the named role, either through an
// explicit active assignment or, when none exist, through the legacy
// mapping.
func (s *Service) HasRole(ctx context.Context, userID int64, roleName string) (bool, error) {
	explicit, err := s.repo.ActiveRoleIDs(ctx, userID)
	if err != nil {
		return false, err
	}
	if len(explicit) > 0 {
		return s.repo.UserHasActiveRole(ctx, userID, roleName)
	}
	legacy, err := s.legacyRole(ctx, userID)
	if err != nil {
		return false, err
	}
	return legacy != nil && legacy.Name == roleName, nil
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// ListActiveRoles returns only active roles.
func (s *Service) ListActiveRoles(ctx context.Context) ([]Role, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]Role, 0, len(roles))
	for _, role := range roles {
		if role.IsActive {
			active = append(active, role)
		}
	}
	return active, nil
}

// ListPermissions returns the full permission catalog.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// AssignLegacyRole ensures a user_roles row matching the user's legacy
// integer role, re-activating an inactive link. When the user holds active
// assignments that no longer include the target role, those assignments are
// deactivated first: otherwise the explicit tier would keep answering for
// the previous role after a role change. Unknown integers are a no-op; the
// administrative API calls this opportunistically on user create/update.
func (s *Service) AssignLegacyRole(ctx context.Context, userID int64, legacyRole int) error {
	name, ok := shared.LegacyRoleName(legacyRole)
	if !ok {
		return nil
	}
	role, err := s.repo.ActiveRoleByName(ctx, name)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	active, err := s.repo.ActiveRoleIDs(ctx, userID)
	if err != nil {
		return err
	}
	holds := false
	for _, id := range active {
		if id == role.ID {
			holds = true
			break
		}
	}
	if len(active) > 0 && !holds {
		if err := s.repo.DeactivateUserRoles(ctx, userID); err != nil {
			return err
		}
	}
	_, _, err = s.repo.EnsureUserRole(ctx, userID, role.ID)
	return err
}

// effectiveRoleIDs returns the user's active assignment role IDs, or the
// legacy-mapped role ID when there are none.
func (s *Service) effectiveRoleIDs(ctx context.Context, userID int64) ([]int64, error) {
	roleIDs, err := s.repo.ActiveRoleIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(roleIDs) > 0 {
		return roleIDs, nil
	}
	legacy, err := s.legacyRole(ctx, userID)
	if err != nil {
		return nil, err
	}
	if legacy == nil {
		return nil, nil
	}
	return []int64{legacy.ID}, nil
}

// legacyRole maps the user's legacy integer field to an active role.
// Missing users, unknown integers and missing roles all yield nil.
func (s *Service) legacyRole(ctx context.Context, userID int64) (*Role, error) {
	legacyInt, err := s.repo.LegacyRole(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	name, ok := shared.LegacyRoleName(legacyInt)
	if !ok {
		return nil, nil
	}
	role, err := s.repo.ActiveRoleByName(ctx, name)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return role, nil
}
