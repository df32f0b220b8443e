package handler

import (
	"net/http"

	"storefront-checkout/internal/core/server"
	"storefront-checkout/internal/features/orders/domain"
	"storefront-checkout/internal/features/orders/ports"
	sessionhandler "storefront-checkout/internal/features/session/handler"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests related to orders.
type OrderHandler struct {
	// service is the OrderService instance.
	service ports.OrderService
}

// NewOrderHandler creates a new instance of OrderHandler.
func NewOrderHandler(s ports.OrderService) *OrderHandler {
	return &OrderHandler{
		service: s,
	}
}

// PlacedOrderResponse is returned after checkout.
type PlacedOrderResponse struct {
	Order *domain.Order `json:"order"`
	// RedirectTo is the order detail view to navigate to.
	RedirectTo string `json:"redirect_to"`
}

// OrderResponse is the order detail view.
type OrderResponse struct {
	Order *domain.Order `json:"order"`
	// CanPay tells the view to offer "Proceed to Payment".
	CanPay bool `json:"can_pay"`
}

// PlaceOrder handles POST /orders.
// @Summary Place order
// @Description Converts the session's cart into an order. Never retried automatically.
// @Tags Orders
// @Produce json
// @Param X-Session-ID header string true "Session id"
// @Success 201 {object} PlacedOrderResponse
// @Failure 401 {object} server.ErrorResponse
// @Failure 409 {object} server.ErrorResponse "Empty cart"
// @Failure 503 {object} server.ErrorResponse
// @Router /orders [post]
func (h *OrderHandler) PlaceOrder(c *fiber.Ctx) error {
	order, err := h.service.PlaceOrder(c.UserContext(), sessionhandler.CurrentSession(c))
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(PlacedOrderResponse{
		Order:      order,
		RedirectTo: domain.ConfirmationPath(order.ID),
	})
}

// GetOrder handles GET /orders/:id.
// @Summary Get Order by ID
// @Description Fetch order details with payment and delivery status.
// @Tags Orders
// @Produce json
// @Param X-Session-ID header string true "Session id"
// @Param id path string true "Order ID"
// @Success 200 {object} OrderResponse
// @Failure 400 {object} server.ErrorResponse
// @Failure 404 {object} server.ErrorResponse
// @Router /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")
	if orderID == "" {
		return c.Status(http.StatusBadRequest).JSON(server.ErrorResponse{
			Message: "Order ID is required",
			RayID:   server.RayID(c),
		})
	}

	order, err := h.service.GetOrder(c.UserContext(), sessionhandler.CurrentSession(c), orderID)
	if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(OrderResponse{
		Order:  order,
		CanPay: order.AwaitingPayment(),
	})
}
