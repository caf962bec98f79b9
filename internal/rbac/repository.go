package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/councilbooks/councilbooks/internal/shared"
)

// RepositoryPort defines the persistence operations the resolver and the
// bootstrap procedures rely on.
type RepositoryPort interface {
	// ActiveRoleIDs returns role IDs for which the user holds an active
	// assignment to an active role.
	ActiveRoleIDs(ctx context.Context, userID int64) ([]int64, error)
	// PermissionCodenames returns the distinct codenames granted to any of
	// the given roles, sorted.
	PermissionCodenames(ctx context.Context, roleIDs []int64) ([]string, error)
	// RoleHasPermission reports whether the role is granted the codename.
	// Unknown codenames report false.
	RoleHasPermission(ctx context.Context, roleID int64, codename string) (bool, error)
	// UserHasActiveRole reports whether the user holds an active assignment
	// to an active role with the exact name.
	UserHasActiveRole(ctx context.Context, userID int64, roleName string) (bool, error)
	// ActiveRoleByName fetches an active role by exact name.
	ActiveRoleByName(ctx context.Context, name string) (*Role, error)
	// LegacyRole returns the legacy integer role field for the user.
	LegacyRole(ctx context.Context, userID int64) (int, error)

	ListRoles(ctx context.Context) ([]Role, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	EnsurePermission(ctx context.Context, spec shared.PermissionSpec) (Permission, bool, error)
	EnsureRole(ctx context.Context, name, description string) (Role, bool, error)
	RolePermissionCodenames(ctx context.Context, roleID int64) ([]string, error)
	AttachPermission(ctx context.Context, roleID int64, codename string) error
	DetachPermission(ctx context.Context, roleID int64, codename string) error
	EnsureUserRole(ctx context.Context, userID, roleID int64) (created, activated bool, err error)
	DeactivateUserRoles(ctx context.Context, userID int64) error
	ListUserLegacyRoles(ctx context.Context) (map[int64]int, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ RepositoryPort = (*Repository)(nil)

// ActiveRoleIDs implements RepositoryPort.
func (r *Repository) ActiveRoleIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ur.role_id
		FROM user_roles ur
		JOIN roles ro ON ro.id = ur.role_id
		WHERE ur.user_id = $1 AND ur.is_active AND ro.is_active
		ORDER BY ur.role_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PermissionCodenames implements RepositoryPort.
func (r *Repository) PermissionCodenames(ctx context.Context, roleIDs []int64) ([]string, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT p.codename
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = ANY($1)
		ORDER BY p.codename`, roleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var codenames []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		codenames = append(codenames, c)
	}
	return codenames, rows.Err()
}

// RoleHasPermission implements RepositoryPort.
func (r *Repository) RoleHasPermission(ctx context.Context, roleID int64, codename string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM role_permissions rp
			JOIN permissions p ON p.id = rp.permission_id
			WHERE rp.role_id = $1 AND p.codename = $2
		)`, roleID, codename).Scan(&exists)
	return exists, err
}

// UserHasActiveRole implements RepositoryPort.
func (r *Repository) UserHasActiveRole(ctx context.Context, userID int64, roleName string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM user_roles ur
			JOIN roles ro ON ro.id = ur.role_id
			WHERE ur.user_id = $1 AND ur.is_active AND ro.is_active AND ro.name = $2
		)`, userID, roleName).Scan(&exists)
	return exists, err
}

// ActiveRoleByName implements RepositoryPort.
func (r *Repository) ActiveRoleByName(ctx context.Context, name string) (*Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, is_active, created_at, updated_at
		FROM roles WHERE name = $1 AND is_active`, name).
		Scan(&role.ID, &role.Name, &role.Description, &role.IsActive, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

// LegacyRole implements RepositoryPort.
func (r *Repository) LegacyRole(ctx context.Context, userID int64) (int, error) {
	var role int
	err := r.pool.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrNotFound
		}
		return 0, err
	}
	return role, nil
}

// ListRoles returns all roles ordered by name.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, is_active, created_at, updated_at
		FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.IsActive, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// ListPermissions returns all permissions ordered by category then name.
func (r *Repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, category, codename, is_active, created_at
		FROM permissions ORDER BY category, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Codename, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// EnsurePermission creates the permission when missing. Existing rows are
// left untouched so codenames stay immutable.
func (r *Repository) EnsurePermission(ctx context.Context, spec shared.PermissionSpec) (Permission, bool, error) {
	var p Permission
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, category, codename, is_active, created_at
		FROM permissions WHERE codename = $1`, spec.Codename).
		Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Codename, &p.IsActive, &p.CreatedAt)
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Permission{}, false, err
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO permissions (name, description, category, codename, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id, name, description, category, codename, is_active, created_at`,
		spec.Name, spec.Description, spec.Category, spec.Codename).
		Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Codename, &p.IsActive, &p.CreatedAt)
	if err != nil {
		return Permission{}, false, err
	}
	return p, true, nil
}

// EnsureRole creates the role when missing.
func (r *Repository) EnsureRole(ctx context.Context, name, description string) (Role, bool, error) {
	var role Role
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, is_active, created_at, updated_at
		FROM roles WHERE name = $1`, name).
		Scan(&role.ID, &role.Name, &role.Description, &role.IsActive, &role.CreatedAt, &role.UpdatedAt)
	if err == nil {
		return role, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Role{}, false, err
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO roles (name, description, is_active)
		VALUES ($1, $2, TRUE)
		RETURNING id, name, description, is_active, created_at, updated_at`,
		name, description).
		Scan(&role.ID, &role.Name, &role.Description, &role.IsActive, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return Role{}, false, err
	}
	return role, true, nil
}

// RolePermissionCodenames lists codenames currently granted to the role.
func (r *Repository) RolePermissionCodenames(ctx context.Context, roleID int64) ([]string, error) {
	return r.PermissionCodenames(ctx, []int64{roleID})
}

// AttachPermission grants a permission to a role, idempotently.
func (r *Repository) AttachPermission(ctx context.Context, roleID int64, codename string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission_id)
		SELECT $1, p.id FROM permissions p WHERE p.codename = $2
		ON CONFLICT (role_id, permission_id) DO NOTHING`, roleID, codename)
	return err
}

// DetachPermission revokes a permission from a role.
func (r *Repository) DetachPermission(ctx context.Context, roleID int64, codename string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM role_permissions rp
		USING permissions p
		WHERE rp.role_id = $1 AND rp.permission_id = p.id AND p.codename = $2`, roleID, codename)
	return err
}

// EnsureUserRole creates the assignment when missing and re-activates an
// inactive one rather than duplicating it.
func (r *Repository) EnsureUserRole(ctx context.Context, userID, roleID int64) (bool, bool, error) {
	var isActive bool
	err := r.pool.QueryRow(ctx,
		`SELECT is_active FROM user_roles WHERE user_id = $1 AND role_id = $2`,
		userID, roleID).Scan(&isActive)
	if errors.Is(err, pgx.ErrNoRows) {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO user_roles (user_id, role_id, is_active) VALUES ($1, $2, TRUE)`,
			userID, roleID)
		if err != nil {
			return false, false, err
		}
		return true, false, nil
	}
	if err != nil {
		return false, false, err
	}
	if !isActive {
		_, err := r.pool.Exec(ctx,
			`UPDATE user_roles SET is_active = TRUE WHERE user_id = $1 AND role_id = $2`,
			userID, roleID)
		if err != nil {
			return false, false, err
		}
		return false, true, nil
	}
	return false, false, nil
}

// DeactivateUserRoles marks every assignment of the user inactive.
func (r *Repository) DeactivateUserRoles(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE user_roles SET is_active = FALSE WHERE user_id = $1`, userID)
	return err
}

// ListUserLegacyRoles returns the legacy role integer per user ID.
func (r *Repository) ListUserLegacyRoles(ctx context.Context) (map[int64]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, role FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64]int)
	for rows.Next() {
		var id int64
		var role int
		if err := rows.Scan(&id, &role); err != nil {
			return nil, err
		}
		out[id] = role
	}
	return out, rows.Err()
}
