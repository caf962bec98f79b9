package users

import "time"

// User represents a user account for management. Role is the legacy integer
// role field (1-4); explicit role assignments live in user_roles and are
// kept in sync opportunistically on create/update.
type User struct {
	ID        int64
	Username  string
	Role      int
	Status    string
	Contact   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
