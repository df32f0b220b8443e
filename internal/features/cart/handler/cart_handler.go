package handler

import (
	"net/http"

	"storefront-checkout/internal/core/server"
	"storefront-checkout/internal/features/cart/domain"
	"storefront-checkout/internal/features/cart/ports"
	sessionhandler "storefront-checkout/internal/features/session/handler"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// CartHandler handles HTTP requests for the session's cart.
type CartHandler struct {
	service ports.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service ports.CartService) *CartHandler {
	return &CartHandler{service: service}
}

// ItemRequest is the body of add and reduce calls.
type ItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CartResponse is the cart view with the header badge count.
type CartResponse struct {
	Items      []domain.CartItem `json:"items"`
	TotalPrice decimal.Decimal   `json:"total_price"`
	ItemCount  int               `json:"item_count"`
	Empty      bool              `json:"empty"`
}

// GetCart handles GET /cart.
// @Summary Get cart
// @Description Fetches the current session's cart from the backend.
// @Tags Cart
// @Produce json
// @Param X-Session-ID header string true "Session id"
// @Success 200 {object} CartResponse
// @Failure 401 {object} server.ErrorResponse
// @Failure 503 {object} server.ErrorResponse
// @Router /cart [get]
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	cart, err := h.service.GetCart(c.UserContext(), sessionhandler.CurrentSession(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toResponse(cart))
}

// AddItem handles POST /cart/add.
// @Summary Add to cart
// @Description Adds units of a product, then returns the refreshed cart.
// @Tags Cart
// @Accept json
// @Produce json
// @Param X-Session-ID header string true "Session id"
// @Param item body ItemRequest true "Product and quantity"
// @Success 200 {object} CartResponse
// @Failure 400 {object} server.ErrorResponse
// @Failure 401 {object} server.ErrorResponse
// @Router /cart/add [post]
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	var req ItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(server.ErrorResponse{
			Message: "Invalid request body",
			RayID:   server.RayID(c),
		})
	}

	cart, err := h.service.AddItem(c.UserContext(), sessionhandler.CurrentSession(c), req.ProductID, req.Quantity)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toResponse(cart))
}

// ReduceItem handles PUT /cart/reduce.
// @Summary Reduce cart item
// @Description Removes units of a product, then returns the refreshed cart.
// @Tags Cart
// @Accept json
// @Produce json
// @Param X-Session-ID header string true "Session id"
// @Param item body ItemRequest true "Product and quantity"
// @Success 200 {object} CartResponse
// @Failure 400 {object} server.ErrorResponse
// @Failure 401 {object} server.ErrorResponse
// @Router /cart/reduce [put]
func (h *CartHandler) ReduceItem(c *fiber.Ctx) error {
	var req ItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(server.ErrorResponse{
			Message: "Invalid request body",
			RayID:   server.RayID(c),
		})
	}

	cart, err := h.service.ReduceItem(c.UserContext(), sessionhandler.CurrentSession(c), req.ProductID, req.Quantity)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toResponse(cart))
}

func toResponse(cart *domain.Cart) CartResponse {
	items := cart.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	return CartResponse{
		Items:      items,
		TotalPrice: cart.TotalPrice,
		ItemCount:  cart.ItemCount(),
		Empty:      cart.IsEmpty(),
	}
}
