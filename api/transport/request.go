package transport

import (
	"regexp"
	"strings"

	"github.com/authgo/backend/domain"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const minPasswordLength = 6

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate normalizes and checks the request fields. Validation failures
// never reach the use case.
func (r *SignupRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	switch {
	case r.Username == "":
		return domain.NewError(domain.ErrCodeInvalid, "username is required")
	case r.Email == "":
		return domain.NewError(domain.ErrCodeInvalid, "email is required")
	case !emailPattern.MatchString(r.Email):
		return domain.NewError(domain.ErrCodeInvalid, "email is not valid")
	case r.Password == "":
		return domain.NewError(domain.ErrCodeInvalid, "password is required")
	case len(r.Password) < minPasswordLength:
		return domain.NewError(domain.ErrCodeInvalid, "password is too short")
	}
	return nil
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate only checks presence. Anything stricter would reject genuine
// wrong-password attempts with 400 instead of 401.
func (r *LoginRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	switch {
	case r.Username == "":
		return domain.NewError(domain.ErrCodeInvalid, "username is required")
	case r.Password == "":
		return domain.NewError(domain.ErrCodeInvalid, "password is required")
	}
	return nil
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

func (r *ForgotPasswordRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	switch {
	case r.Email == "":
		return domain.NewError(domain.ErrCodeInvalid, "email is required")
	case !emailPattern.MatchString(r.Email):
		return domain.NewError(domain.ErrCodeInvalid, "email is not valid")
	}
	return nil
}
