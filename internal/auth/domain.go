package auth

import "time"

// User represents an authenticatable account. LegacyRole is the historic
// integer role field (1-4) kept for backward compatibility with the role
// fallback; Status gates login ("active" accounts only).
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	LegacyRole   int
	Status       string
	Contact      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Active reports whether the account may log in.
func (u *User) Active() bool {
	return u != nil && u.Status == "active"
}
