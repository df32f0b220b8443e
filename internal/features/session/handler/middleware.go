package handler

import (
	"errors"

	"storefront-checkout/internal/core/apierror"
	"storefront-checkout/internal/core/logger"
	"storefront-checkout/internal/core/server"
	"storefront-checkout/internal/features/session/domain"
	"storefront-checkout/internal/features/session/ports"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	// HeaderName carries the session id on API calls.
	HeaderName = "X-Session-ID"
	// CookieName carries the session id for browser clients.
	CookieName = "session_id"

	localsKey = "session"
)

// SessionID reads the session id from the header, falling back to the cookie.
func SessionID(c *fiber.Ctx) string {
	if id := c.Get(HeaderName); id != "" {
		return id
	}
	return c.Cookies(CookieName)
}

// CurrentSession returns the session resolved by RequireSession, or nil.
func CurrentSession(c *fiber.Ctx) *domain.Session {
	sess, _ := c.Locals(localsKey).(*domain.Session)
	return sess
}

// SetSession stores sess for downstream handlers.
func SetSession(c *fiber.Ctx, sess *domain.Session) {
	c.Locals(localsKey, sess)
}

// RequireSession resolves the caller's session and stores it for downstream
// handlers. Requests without one are answered with 401 and a login redirect.
// When a downstream handler fails with ErrUnauthorized the backend has
// rejected the token, so the session is cleared before the error is rendered.
func RequireSession(service ports.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := SessionID(c)
		if id == "" {
			return apierror.ErrUnauthenticated
		}

		sess, err := service.Resolve(c.UserContext(), id)
		if err != nil {
			return err
		}
		SetSession(c, sess)

		err = c.Next()
		if err != nil && errors.Is(err, apierror.ErrUnauthorized) {
			if clearErr := service.Logout(c.UserContext(), id); clearErr != nil {
				logger.Get().Warn("Failed to clear rejected session",
					zap.String("ray_id", server.RayID(c)),
					zap.Error(clearErr))
			}
			c.ClearCookie(CookieName)
		}
		return err
	}
}
