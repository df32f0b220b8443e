package service

import (
	"context"
	"fmt"

	"storefront-checkout/internal/core/apierror"
	"storefront-checkout/internal/core/logger"
	"storefront-checkout/internal/features/cart/domain"
	"storefront-checkout/internal/features/cart/ports"
	sessiondomain "storefront-checkout/internal/features/session/domain"

	"go.uber.org/zap"
)

// CartService implements ports.CartService. Every mutation is followed by a
// fresh fetch, the backend being the only source of truth for the cart.
type CartService struct {
	provider ports.CartProvider
}

// NewCartService creates a new instance of CartService.
func NewCartService(provider ports.CartProvider) *CartService {
	return &CartService{provider: provider}
}

// GetCart fetches the session's cart.
func (s *CartService) GetCart(ctx context.Context, sess *sessiondomain.Session) (*domain.Cart, error) {
	cart, err := s.provider.FetchCart(ctx, sess)
	if err != nil {
		return nil, err
	}
	if err := cart.Validate(); err != nil {
		logger.Get().Warn("Backend returned an inconsistent cart", zap.Error(err))
	}
	return cart, nil
}

// AddItem adds quantity units of productID and returns the refreshed cart.
func (s *CartService) AddItem(ctx context.Context, sess *sessiondomain.Session, productID string, quantity int) (*domain.Cart, error) {
	if err := validateMutation(productID, quantity); err != nil {
		return nil, err
	}
	if err := s.provider.AddItem(ctx, sess, productID, quantity); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, sess)
}

// ReduceItem removes quantity units of productID and returns the refreshed cart.
func (s *CartService) ReduceItem(ctx context.Context, sess *sessiondomain.Session, productID string, quantity int) (*domain.Cart, error) {
	if err := validateMutation(productID, quantity); err != nil {
		return nil, err
	}
	if err := s.provider.ReduceItem(ctx, sess, productID, quantity); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, sess)
}

func validateMutation(productID string, quantity int) error {
	if productID == "" {
		return fmt.Errorf("%w: product id is required", apierror.ErrInvalidInput)
	}
	if quantity < 1 {
		return fmt.Errorf("%w: %w", apierror.ErrInvalidInput, domain.ErrInvalidQuantity)
	}
	return nil
}
