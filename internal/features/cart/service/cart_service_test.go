package service

import (
	"context"
	"testing"

	"storefront-checkout/internal/core/apierror"
	"storefront-checkout/internal/features/cart/domain"
	sessiondomain "storefront-checkout/internal/features/session/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCartProvider is a mock implementation of ports.CartProvider.
type MockCartProvider struct {
	mock.Mock
}

func (m *MockCartProvider) FetchCart(ctx context.Context, sess *sessiondomain.Session) (*domain.Cart, error) {
	args := m.Called(ctx, sess)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *MockCartProvider) AddItem(ctx context.Context, sess *sessiondomain.Session, productID string, quantity int) error {
	return m.Called(ctx, sess, productID, quantity).Error(0)
}

func (m *MockCartProvider) ReduceItem(ctx context.Context, sess *sessiondomain.Session, productID string, quantity int) error {
	return m.Called(ctx, sess, productID, quantity).Error(0)
}

var sess = &sessiondomain.Session{ID: "sess-1", Token: "jwt"}

func cartWith(quantity int) *domain.Cart {
	return &domain.Cart{
		Items: []domain.CartItem{
			{Product: domain.Product{ID: "p1", Price: decimal.NewFromInt(10)}, Quantity: quantity},
		},
		TotalPrice: decimal.NewFromInt(int64(10 * quantity)),
	}
}

func TestCartService_AddItemRefetches(t *testing.T) {
	ctx := context.Background()
	provider := new(MockCartProvider)
	svc := NewCartService(provider)

	provider.On("AddItem", ctx, sess, "p1", 2).Return(nil).Once()
	provider.On("FetchCart", ctx, sess).Return(cartWith(3), nil).Once()

	cart, err := svc.AddItem(ctx, sess, "p1", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.ItemCount())
	provider.AssertExpectations(t)
}

func TestCartService_ReduceItemRefetches(t *testing.T) {
	ctx := context.Background()
	provider := new(MockCartProvider)
	svc := NewCartService(provider)

	provider.On("ReduceItem", ctx, sess, "p1", 1).Return(nil).Once()
	provider.On("FetchCart", ctx, sess).Return(cartWith(1), nil).Once()

	cart, err := svc.ReduceItem(ctx, sess, "p1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.ItemCount())
	provider.AssertExpectations(t)
}

func TestCartService_MutationFailureSkipsFetch(t *testing.T) {
	ctx := context.Background()
	provider := new(MockCartProvider)
	svc := NewCartService(provider)

	provider.On("AddItem", ctx, sess, "p1", 1).Return(apierror.ErrTransient).Once()

	_, err := svc.AddItem(ctx, sess, "p1", 1)
	assert.ErrorIs(t, err, apierror.ErrTransient)
	provider.AssertNotCalled(t, "FetchCart", mock.Anything, mock.Anything)
}

func TestCartService_RejectsInvalidMutation(t *testing.T) {
	provider := new(MockCartProvider)
	svc := NewCartService(provider)

	_, err := svc.AddItem(context.Background(), sess, "p1", 0)
	assert.ErrorIs(t, err, apierror.ErrInvalidInput)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = svc.ReduceItem(context.Background(), sess, "", 1)
	assert.ErrorIs(t, err, apierror.ErrInvalidInput)

	provider.AssertExpectations(t)
}
