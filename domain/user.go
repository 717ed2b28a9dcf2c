package domain

import "time"

// Default role assigned at signup.
const RoleUser = "USER"

// User represents a registered account. PasswordHash only ever holds the
// bcrypt digest, never the plaintext password.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) IsActive() bool {
	return u != nil && u.Active
}
