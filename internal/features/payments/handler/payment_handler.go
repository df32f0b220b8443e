package handler

import (
	"net/http"

	"storefront-checkout/internal/core/server"
	"storefront-checkout/internal/features/payments/domain"
	"storefront-checkout/internal/features/payments/ports"
	sessionhandler "storefront-checkout/internal/features/session/handler"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler exposes the payment reconciliation of an order.
type PaymentHandler struct {
	service ports.CheckoutService
	// keyID is the public gateway key handed to the widget.
	keyID string
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(s ports.CheckoutService, keyID string) *PaymentHandler {
	return &PaymentHandler{
		service: s,
		keyID:   keyID,
	}
}

// StartResponse carries what the front end needs to open the widget.
type StartResponse struct {
	Status domain.Status `json:"status"`
	// KeyID is the public gateway key.
	KeyID string `json:"key_id,omitempty"`
}

// StartPayment handles POST /payments/:orderId.
// @Summary Start payment
// @Description Creates the gateway payment for the order and starts reconciling it. Starting again while a payment is in progress returns the live status.
// @Tags Payments
// @Produce json
// @Param X-Session-ID header string true "Session id"
// @Param orderId path string true "Order ID"
// @Success 202 {object} StartResponse
// @Failure 401 {object} server.ErrorResponse
// @Failure 404 {object} server.ErrorResponse
// @Failure 409 {object} server.ErrorResponse "Order already paid or paid from another session"
// @Failure 503 {object} server.ErrorResponse
// @Router /payments/{orderId} [post]
func (h *PaymentHandler) StartPayment(c *fiber.Ctx) error {
	orderID, ok := orderIDParam(c)
	if !ok {
		return missingOrderID(c)
	}

	status, err := h.service.Start(c.UserContext(), sessionhandler.CurrentSession(c), orderID)
	if err != nil {
		return err
	}

	return c.Status(http.StatusAccepted).JSON(StartResponse{
		Status: status,
		KeyID:  h.keyID,
	})
}

// Callback handles POST /payments/:orderId/callback.
// @Summary Deliver widget result
// @Description Hands the payment widget's result (confirmation, dismissal or failure) to the order's reconciliation.
// @Tags Payments
// @Accept json
// @Produce json
// @Param X-Session-ID header string true "Session id"
// @Param orderId path string true "Order ID"
// @Param request body domain.WidgetResult true "Widget result"
// @Success 202 {object} domain.Status
// @Failure 400 {object} server.ErrorResponse
// @Failure 404 {object} server.ErrorResponse "No payment waiting for a widget result"
// @Router /payments/{orderId}/callback [post]
func (h *PaymentHandler) Callback(c *fiber.Ctx) error {
	orderID, ok := orderIDParam(c)
	if !ok {
		return missingOrderID(c)
	}

	var result domain.WidgetResult
	if err := c.BodyParser(&result); err != nil {
		return c.Status(http.StatusBadRequest).JSON(server.ErrorResponse{
			Message: "Invalid request body",
			RayID:   server.RayID(c),
		})
	}

	sess := sessionhandler.CurrentSession(c)
	if err := h.service.Deliver(c.UserContext(), sess, orderID, result); err != nil {
		return err
	}

	status, err := h.service.Status(c.UserContext(), sess, orderID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(status)
}

// RetryPayment handles POST /payments/:orderId/retry.
// @Summary Retry payment verification
// @Description Resumes polling the order after a verification timeout. No new payment is created.
// @Tags Payments
// @Produce json
// @Param X-Session-ID header string true "Session id"
// @Param orderId path string true "Order ID"
// @Success 202 {object} domain.Status
// @Failure 409 {object} server.ErrorResponse
// @Router /payments/{orderId}/retry [post]
func (h *PaymentHandler) RetryPayment(c *fiber.Ctx) error {
	orderID, ok := orderIDParam(c)
	if !ok {
		return missingOrderID(c)
	}

	status, err := h.service.Retry(c.UserContext(), sessionhandler.CurrentSession(c), orderID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(status)
}

// GetStatus handles GET /payments/:orderId.
// @Summary Payment status
// @Description Live or last known reconciliation status of the order.
// @Tags Payments
// @Produce json
// @Param X-Session-ID header string true "Session id"
// @Param orderId path string true "Order ID"
// @Success 200 {object} domain.Status
// @Failure 404 {object} server.ErrorResponse
// @Router /payments/{orderId} [get]
func (h *PaymentHandler) GetStatus(c *fiber.Ctx) error {
	orderID, ok := orderIDParam(c)
	if !ok {
		return missingOrderID(c)
	}

	status, err := h.service.Status(c.UserContext(), sessionhandler.CurrentSession(c), orderID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(status)
}

// CancelPayment handles DELETE /payments/:orderId.
// @Summary Cancel reconciliation
// @Description Stops the order's reconciliation. Nothing it started has any effect afterwards.
// @Tags Payments
// @Param X-Session-ID header string true "Session id"
// @Param orderId path string true "Order ID"
// @Success 204
// @Router /payments/{orderId} [delete]
func (h *PaymentHandler) CancelPayment(c *fiber.Ctx) error {
	orderID, ok := orderIDParam(c)
	if !ok {
		return missingOrderID(c)
	}

	if err := h.service.Cancel(c.UserContext(), sessionhandler.CurrentSession(c), orderID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func orderIDParam(c *fiber.Ctx) (string, bool) {
	id := c.Params("orderId")
	return id, id != ""
}

func missingOrderID(c *fiber.Ctx) error {
	return c.Status(http.StatusBadRequest).JSON(server.ErrorResponse{
		Message: "Order ID is required",
		RayID:   server.RayID(c),
	})
}
