package transport

import "github.com/authgo/backend/domain"

// AuthResponse is the single JSON shape shared by every auth endpoint.
// Successes carry the token and profile fields and no message; failures
// carry only the message. The HTTP status, not this body, signals the
// outcome.
type AuthResponse struct {
	Message  string `json:"message,omitempty"`
	Token    string `json:"token,omitempty"`
	ID       string `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

// NewAuthSuccess builds the success body for signup and login.
func NewAuthSuccess(payload *domain.AuthPayload) AuthResponse {
	if payload == nil {
		return AuthResponse{}
	}
	return AuthResponse{
		Token:    payload.Token,
		ID:       payload.UserID,
		Username: payload.Username,
		Email:    payload.Email,
		Role:     payload.Role,
	}
}

// NewAuthMessage builds a message-only body.
func NewAuthMessage(message string) AuthResponse {
	return AuthResponse{Message: message}
}
