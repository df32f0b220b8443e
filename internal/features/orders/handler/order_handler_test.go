package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront-checkout/internal/core/apierror"
	"storefront-checkout/internal/core/server"
	"storefront-checkout/internal/features/orders/domain"
	sessiondomain "storefront-checkout/internal/features/session/domain"
	sessionhandler "storefront-checkout/internal/features/session/handler"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderService is a mock implementation of ports.OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) PlaceOrder(ctx context.Context, sess *sessiondomain.Session) (*domain.Order, error) {
	args := m.Called(ctx, sess)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, sess *sessiondomain.Session, orderID string) (*domain.Order, error) {
	args := m.Called(ctx, sess, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

var sess = &sessiondomain.Session{ID: "sess-1", Token: "jwt"}

func setupApp(service *MockOrderService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: server.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		sessionhandler.SetSession(c, sess)
		return c.Next()
	})
	handler := NewOrderHandler(service)
	app.Post("/orders", handler.PlaceOrder)
	app.Get("/orders/:id", handler.GetOrder)
	return app
}

func TestOrderHandler_PlaceOrder(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockOrderService)
		app := setupApp(mockService)

		mockService.On("PlaceOrder", mock.Anything, sess).
			Return(&domain.Order{ID: "O1", PaymentStatus: domain.PaymentStatusPending}, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/orders", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var body PlacedOrderResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "/order/O1", body.RedirectTo)
		assert.Equal(t, "O1", body.Order.ID)
		mockService.AssertExpectations(t)
	})

	t.Run("EmptyCart", func(t *testing.T) {
		mockService := new(MockOrderService)
		app := setupApp(mockService)

		mockService.On("PlaceOrder", mock.Anything, sess).Return(nil, apierror.ErrEmptyCart).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/orders", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		var body server.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, apierror.KindConflict, body.Kind)
		assert.Empty(t, body.RedirectTo)
		mockService.AssertExpectations(t)
	})
}

func TestOrderHandler_GetOrder(t *testing.T) {
	t.Run("Pending", func(t *testing.T) {
		mockService := new(MockOrderService)
		app := setupApp(mockService)

		mockService.On("GetOrder", mock.Anything, sess, "O1").
			Return(&domain.Order{ID: "O1", PaymentStatus: domain.PaymentStatusPending}, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/orders/O1", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body OrderResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.True(t, body.CanPay)
		mockService.AssertExpectations(t)
	})

	t.Run("Paid", func(t *testing.T) {
		mockService := new(MockOrderService)
		app := setupApp(mockService)

		mockService.On("GetOrder", mock.Anything, sess, "O1").
			Return(&domain.Order{ID: "O1", PaymentStatus: domain.PaymentStatusPaid}, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/orders/O1", nil))
		require.NoError(t, err)

		var body OrderResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.False(t, body.CanPay)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockService := new(MockOrderService)
		app := setupApp(mockService)

		mockService.On("GetOrder", mock.Anything, sess, "missing").Return(nil, apierror.ErrOrderNotFound).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/orders/missing", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockService.AssertExpectations(t)
	})
}
