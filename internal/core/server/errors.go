package server

import (
	"errors"
	"net/http"

	"storefront-checkout/internal/core/apierror"
	"storefront-checkout/internal/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// LoginPath is where front ends send users without a valid session.
const LoginPath = "/login"

// ErrorResponse represents the structure of an error response.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// Kind is the taxonomy kind (e.g. conflict, transient).
	Kind apierror.Kind `json:"kind"`
	// RayID is the unique request identifier for debugging.
	RayID string `json:"ray_id"`
	// RedirectTo tells the front end where to navigate, if anywhere.
	RedirectTo string `json:"redirect_to,omitempty"`
}

// RayID returns the request id assigned by the requestid middleware.
func RayID(c *fiber.Ctx) string {
	rayID, ok := c.Locals("requestid").(string)
	if !ok || rayID == "" {
		return "unknown"
	}
	return rayID
}

// StatusFor maps a taxonomy kind to an HTTP status.
func StatusFor(kind apierror.Kind) int {
	switch kind {
	case apierror.KindUnauthenticated, apierror.KindUnauthorized:
		return http.StatusUnauthorized
	case apierror.KindNotFound:
		return http.StatusNotFound
	case apierror.KindConflict:
		return http.StatusConflict
	case apierror.KindSignatureInvalid:
		return http.StatusPaymentRequired
	case apierror.KindTransient:
		return http.StatusServiceUnavailable
	case apierror.KindTimeout:
		return http.StatusGatewayTimeout
	case apierror.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders errors returned by handlers as ErrorResponse.
func ErrorHandler(c *fiber.Ctx, err error) error {
	rayID := RayID(c)

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(ErrorResponse{
			Message: fiberErr.Message,
			Kind:    apierror.KindUnknown,
			RayID:   rayID,
		})
	}

	kind := apierror.KindOf(err)
	status := StatusFor(kind)

	resp := ErrorResponse{
		Message: err.Error(),
		Kind:    kind,
		RayID:   rayID,
	}
	if kind == apierror.KindUnauthenticated || kind == apierror.KindUnauthorized {
		resp.RedirectTo = LoginPath
	}
	if status == http.StatusInternalServerError {
		resp.Message = "Internal Server Error"
	}

	fields := []zap.Field{
		zap.String("ray_id", rayID),
		zap.String("path", c.Path()),
		zap.String("kind", string(kind)),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logger.Get().Error("Request failed", fields...)
	} else {
		logger.Get().Info("Request rejected", fields...)
	}

	return c.Status(status).JSON(resp)
}
