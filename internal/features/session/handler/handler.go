package handler

import (
	"net/http"
	"time"

	"storefront-checkout/internal/core/logger"
	"storefront-checkout/internal/core/server"
	"storefront-checkout/internal/features/session/domain"
	"storefront-checkout/internal/features/session/ports"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SessionHandler handles HTTP requests for login, registration and logout.
type SessionHandler struct {
	service  ports.SessionService
	ttl      time.Duration
	teardown []ports.SessionTeardown
}

// NewSessionHandler creates a new SessionHandler. ttl sets the cookie lifetime.
// Every teardown is told when a session logs out.
func NewSessionHandler(service ports.SessionService, ttl time.Duration, teardown ...ports.SessionTeardown) *SessionHandler {
	return &SessionHandler{
		service:  service,
		ttl:      ttl,
		teardown: teardown,
	}
}

// SessionResponse is returned after a successful login or registration.
type SessionResponse struct {
	SessionID string `json:"session_id"`
	Role      string `json:"role,omitempty"`
	// RedirectTo is where the front end lands after authenticating.
	RedirectTo string `json:"redirect_to"`
}

// RoleResponse carries the role of the current user.
type RoleResponse struct {
	Role    string `json:"role"`
	IsAdmin bool   `json:"is_admin"`
}

// Login handles POST /auth/login.
// @Summary Log in
// @Description Exchanges credentials for a session backed by a storefront token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body domain.Credentials true "Email and password"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} server.ErrorResponse
// @Failure 401 {object} server.ErrorResponse
// @Failure 503 {object} server.ErrorResponse
// @Router /auth/login [post]
func (h *SessionHandler) Login(c *fiber.Ctx) error {
	var creds domain.Credentials
	if err := c.BodyParser(&creds); err != nil {
		return c.Status(http.StatusBadRequest).JSON(server.ErrorResponse{
			Message: "Invalid request body",
			RayID:   server.RayID(c),
		})
	}

	sess, err := h.service.Login(c.UserContext(), creds)
	if err != nil {
		return err
	}

	return h.respondWithSession(c, http.StatusOK, sess)
}

// Register handles POST /auth/register.
// @Summary Register
// @Description Creates an account and opens a session for it.
// @Tags Auth
// @Accept json
// @Produce json
// @Param registration body domain.Registration true "Account details"
// @Success 201 {object} SessionResponse
// @Failure 400 {object} server.ErrorResponse
// @Failure 409 {object} server.ErrorResponse
// @Router /auth/register [post]
func (h *SessionHandler) Register(c *fiber.Ctx) error {
	var reg domain.Registration
	if err := c.BodyParser(&reg); err != nil {
		return c.Status(http.StatusBadRequest).JSON(server.ErrorResponse{
			Message: "Invalid request body",
			RayID:   server.RayID(c),
		})
	}

	sess, err := h.service.Register(c.UserContext(), reg)
	if err != nil {
		return err
	}

	return h.respondWithSession(c, http.StatusCreated, sess)
}

// Logout handles POST /auth/logout.
// @Summary Log out
// @Description Clears the current session and stops its payment reconciliations. Unknown sessions are ignored.
// @Tags Auth
// @Produce json
// @Param X-Session-ID header string false "Session id"
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	id := SessionID(c)
	if id != "" {
		if err := h.service.Logout(c.UserContext(), id); err != nil {
			logger.Get().Warn("Failed to clear session", zap.String("ray_id", server.RayID(c)), zap.Error(err))
		}
		for _, t := range h.teardown {
			t.CancelSession(id)
		}
	}

	c.ClearCookie(CookieName)
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"redirect_to": server.LoginPath,
	})
}

// Role handles GET /auth/role.
// @Summary Current role
// @Description Re-reads the user's role from the backend.
// @Tags Auth
// @Produce json
// @Param X-Session-ID header string true "Session id"
// @Success 200 {object} RoleResponse
// @Failure 401 {object} server.ErrorResponse
// @Router /auth/role [get]
func (h *SessionHandler) Role(c *fiber.Ctx) error {
	sess := CurrentSession(c)

	role, err := h.service.RefreshRole(c.UserContext(), sess)
	if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(RoleResponse{
		Role:    role,
		IsAdmin: role == domain.RoleAdmin,
	})
}

func (h *SessionHandler) respondWithSession(c *fiber.Ctx, status int, sess *domain.Session) error {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  time.Now().Add(h.ttl),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	redirect := "/"
	if sess.IsAdmin() {
		redirect = "/admin"
	}

	return c.Status(status).JSON(SessionResponse{
		SessionID:  sess.ID,
		Role:       sess.Role,
		RedirectTo: redirect,
	})
}
