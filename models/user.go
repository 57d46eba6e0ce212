package models

import "time"

// Role values for User.Role. The role is fixed at creation; there is no
// promotion or demotion operation.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents an account in the system.
// It maps to the `users` table.
type User struct {
	ID       string `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Email    string `db:"email" json:"email"`
	Role     string `db:"role" json:"role"`
	// CreatedAt is immutable after creation.
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	// LastLogin is stamped on successful authentication. Nullable in DB;
	// use a pointer to distinguish "never logged in" from zero time.
	LastLogin *time.Time `db:"last_login" json:"last_login,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
