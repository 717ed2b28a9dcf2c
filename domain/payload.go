package domain

// AuthPayload is the success result of signup and login: a signed bearer
// token plus the public profile fields of the authenticated user.
type AuthPayload struct {
	Token    string `json:"token"`
	UserID   string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}
