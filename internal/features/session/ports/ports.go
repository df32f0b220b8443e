package ports

import (
	"context"

	"storefront-checkout/internal/features/session/domain"
)

// SessionStore persists sessions across requests until logout.
type SessionStore interface {
	// Get returns the session or an error wrapping apierror.ErrUnauthenticated.
	Get(ctx context.Context, id string) (*domain.Session, error)
	// Save stores or replaces the session.
	Save(ctx context.Context, s *domain.Session) error
	// Clear removes the session. Clearing an unknown id is not an error.
	Clear(ctx context.Context, id string) error
}

// AuthProvider issues tokens from the storefront backend.
type AuthProvider interface {
	Login(ctx context.Context, creds domain.Credentials) (string, error)
	Register(ctx context.Context, reg domain.Registration) (string, error)
	FetchRole(ctx context.Context, token string) (string, error)
}

// SessionService is the primary port used by handlers and middleware.
type SessionService interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.Session, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.Session, error)
	Logout(ctx context.Context, id string) error
	Resolve(ctx context.Context, id string) (*domain.Session, error)
	RefreshRole(ctx context.Context, s *domain.Session) (string, error)
}

// SessionTeardown stops background work bound to a session once it ends.
type SessionTeardown interface {
	CancelSession(sessionID string)
}
