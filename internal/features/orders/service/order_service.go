package service

import (
	"context"
	"fmt"
	"strings"

	"storefront-checkout/internal/core/apierror"
	"storefront-checkout/internal/core/logger"
	"storefront-checkout/internal/features/orders/domain"
	"storefront-checkout/internal/features/orders/ports"
	sessiondomain "storefront-checkout/internal/features/session/domain"

	"go.uber.org/zap"
)

// OrderService handles placing and reading orders.
type OrderService struct {
	// provider is the interface for the backend order endpoints.
	provider ports.OrderProvider
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(provider ports.OrderProvider) *OrderService {
	return &OrderService{
		provider: provider,
	}
}

// PlaceOrder converts the session's cart into an order. A failure is returned
// as is and never retried, since a retry could create a duplicate order.
func (s *OrderService) PlaceOrder(ctx context.Context, sess *sessiondomain.Session) (*domain.Order, error) {
	order, err := s.provider.PlaceOrder(ctx, sess)
	if err != nil {
		return nil, err
	}

	checkTotal(order)
	logger.Get().Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("total", order.TotalPrice.String()),
	)
	return order, nil
}

// GetOrder retrieves an order by ID.
func (s *OrderService) GetOrder(ctx context.Context, sess *sessiondomain.Session, orderID string) (*domain.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, fmt.Errorf("%w: order id is required", apierror.ErrInvalidInput)
	}

	order, err := s.provider.FetchOrder(ctx, sess, orderID)
	if err != nil {
		return nil, err
	}

	checkTotal(order)
	return order, nil
}

// checkTotal logs orders whose total disagrees with their snapshots. The
// backend stays authoritative, so the order is still returned.
func checkTotal(order *domain.Order) {
	if err := order.ValidateTotal(); err != nil {
		logger.Get().Warn("Order total mismatch", zap.String("order_id", order.ID), zap.Error(err))
	}
}
