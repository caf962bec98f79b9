package rbac

import "time"

// Role represents a named bundle of permissions. Roles are deactivated, not
// deleted, so assignment history survives.
type Role struct {
	ID          int64
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission represents an atomic capability. Codename is the stable
// identifier used by every check; Name is the human-readable label.
type Permission struct {
	ID          int64
	Name        string
	Description string
	Category    string
	Codename    string
	IsActive    bool
	CreatedAt   time.Time
}

// RolePermission grants a permission to a role. Unique per (role, permission).
type RolePermission struct {
	RoleID       int64
	PermissionID int64
	CreatedAt    time.Time
}

// UserRole links a user to a role. Unique per (user, role); deactivating
// removes it from resolution without destroying history.
type UserRole struct {
	UserID    int64
	RoleID    int64
	IsActive  bool
	CreatedAt time.Time
}
