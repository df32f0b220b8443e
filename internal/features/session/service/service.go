package service

import (
	"context"
	"errors"
	"fmt"

	"storefront-checkout/internal/core/apierror"
	"storefront-checkout/internal/core/logger"
	"storefront-checkout/internal/features/session/domain"
	"storefront-checkout/internal/features/session/ports"

	"go.uber.org/zap"
)

// SessionServiceImpl implements ports.SessionService.
type SessionServiceImpl struct {
	auth  ports.AuthProvider
	store ports.SessionStore
}

// NewSessionService creates a new SessionServiceImpl.
func NewSessionService(auth ports.AuthProvider, store ports.SessionStore) *SessionServiceImpl {
	return &SessionServiceImpl{auth: auth, store: store}
}

// Login validates credentials locally, obtains a token and opens a session.
func (s *SessionServiceImpl) Login(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	token, err := s.auth.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, token)
}

// Register creates the account and logs the new user in.
func (s *SessionServiceImpl) Register(ctx context.Context, reg domain.Registration) (*domain.Session, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	token, err := s.auth.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, token)
}

func (s *SessionServiceImpl) open(ctx context.Context, token string) (*domain.Session, error) {
	sess := domain.NewSession(token)

	// The role only drives presentation; a failure here does not block login.
	if role, err := s.auth.FetchRole(ctx, token); err != nil {
		logger.Get().Warn("Failed to fetch user role", zap.String("session_id", sess.ID), zap.Error(err))
	} else {
		sess.Role = role
	}

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("service: failed to open session: %w", err)
	}
	return sess, nil
}

// Logout clears the session.
func (s *SessionServiceImpl) Logout(ctx context.Context, id string) error {
	if err := s.store.Clear(ctx, id); err != nil {
		return fmt.Errorf("service: failed to logout: %w", err)
	}
	return nil
}

// Resolve loads the session bound to id.
func (s *SessionServiceImpl) Resolve(ctx context.Context, id string) (*domain.Session, error) {
	return s.store.Get(ctx, id)
}

// RefreshRole asks the backend for the session's role and persists it. A
// rejected token clears the session.
func (s *SessionServiceImpl) RefreshRole(ctx context.Context, sess *domain.Session) (string, error) {
	role, err := s.auth.FetchRole(ctx, sess.TokenOrEmpty())
	if err != nil {
		if errors.Is(err, apierror.ErrUnauthorized) {
			if clearErr := s.store.Clear(ctx, sess.ID); clearErr != nil {
				logger.Get().Error("Failed to clear rejected session", zap.String("session_id", sess.ID), zap.Error(clearErr))
			}
		}
		return "", err
	}
	if role != sess.Role {
		sess.Role = role
		if err := s.store.Save(ctx, sess); err != nil {
			return "", fmt.Errorf("service: failed to save role: %w", err)
		}
	}
	return role, nil
}
