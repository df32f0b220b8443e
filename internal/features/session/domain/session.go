package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"storefront-checkout/internal/core/apierror"

	"github.com/google/uuid"
)

// RoleAdmin is the role the backend reports for administrators.
const RoleAdmin = "admin"

// Session is the explicit holder of one opaque bearer token. It is created at
// login or registration and cleared at logout.
type Session struct {
	// ID identifies the session towards the front end.
	ID string `json:"id"`
	// Token is the opaque bearer credential issued by the backend.
	Token string `json:"token"`
	// Role is the user's role as last reported by the backend.
	Role string `json:"role,omitempty"`
	// CreatedAt is when the session was opened.
	CreatedAt time.Time `json:"created_at"`
}

// NewSession opens a session around a freshly issued token.
func NewSession(token string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Token:     token,
		CreatedAt: time.Now().UTC(),
	}
}

// Authenticated reports whether the session holds a token.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// IsAdmin reports whether the session belongs to an administrator.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

// TokenOrEmpty returns the bearer token, tolerating a nil session.
func (s *Session) TokenOrEmpty() string {
	if s == nil {
		return ""
	}
	return s.Token
}

// Credentials are the login form fields.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate rejects incomplete credentials before any request is sent.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" || c.Password == "" {
		return fmt.Errorf("%w: please enter both email and password", apierror.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return fmt.Errorf("%w: invalid email address", apierror.ErrInvalidInput)
	}
	return nil
}

// Registration are the sign-up form fields.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Validate requires every field, as the sign-up form does.
func (r Registration) Validate() error {
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Role) == "" {
		return fmt.Errorf("%w: all fields are required", apierror.ErrInvalidInput)
	}
	return Credentials{Email: r.Email, Password: r.Password}.Validate()
}
