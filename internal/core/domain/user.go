package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Account is owned by the identity provider.
type Account struct {
	ID            string    `json:"uid"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	LastSignInAt  time.Time `json:"last_sign_in_at,omitempty"`
}

// Session is an authenticated identity-provider session. Token is the bearer
// credential handed to the client.
type Session struct {
	ID            string    `json:"-"`
	AccountID     string    `json:"uid"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	Token         string    `json:"token,omitempty"`
	IssuedAt      time.Time `json:"issued_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// IsAdmin reports whether the session may use the review workflow.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}
