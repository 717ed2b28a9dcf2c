package domain

import "time"

// Auth event actions.
const (
	ActionSignup         = "signup"
	ActionLogin          = "login"
	ActionForgotPassword = "forgot_password"
	ActionLogout         = "logout"
)

// Auth event outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AuthEvent is an audit record of a single authentication attempt. Events
// are journaled locally first and flushed to Postgres in the background.
type AuthEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Username  string    `json:"username,omitempty"`
	Action    string    `json:"action"`
	Outcome   string    `json:"outcome"`
	CreatedAt time.Time `json:"created_at"`
}
