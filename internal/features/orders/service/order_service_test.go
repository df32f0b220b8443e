package service

import (
	"context"
	"testing"

	"storefront-checkout/internal/core/apierror"
	"storefront-checkout/internal/features/orders/domain"
	sessiondomain "storefront-checkout/internal/features/session/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderProvider is a mock implementation of ports.OrderProvider.
type MockOrderProvider struct {
	mock.Mock
}

func (m *MockOrderProvider) PlaceOrder(ctx context.Context, sess *sessiondomain.Session) (*domain.Order, error) {
	args := m.Called(ctx, sess)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderProvider) FetchOrder(ctx context.Context, sess *sessiondomain.Session, orderID string) (*domain.Order, error) {
	args := m.Called(ctx, sess, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

var sess = &sessiondomain.Session{ID: "sess-1", Token: "jwt"}

func TestOrderService_PlaceOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		provider := new(MockOrderProvider)
		svc := NewOrderService(provider)

		order := &domain.Order{ID: "O1", PaymentStatus: domain.PaymentStatusPending}
		provider.On("PlaceOrder", ctx, sess).Return(order, nil).Once()

		got, err := svc.PlaceOrder(ctx, sess)
		require.NoError(t, err)
		assert.Equal(t, "O1", got.ID)
		provider.AssertExpectations(t)
	})

	t.Run("EmptyCartIsNotRetried", func(t *testing.T) {
		provider := new(MockOrderProvider)
		svc := NewOrderService(provider)

		provider.On("PlaceOrder", ctx, sess).Return(nil, apierror.ErrEmptyCart).Once()

		got, err := svc.PlaceOrder(ctx, sess)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, apierror.ErrEmptyCart)
		provider.AssertNumberOfCalls(t, "PlaceOrder", 1)
	})

	t.Run("TransientIsNotRetried", func(t *testing.T) {
		provider := new(MockOrderProvider)
		svc := NewOrderService(provider)

		provider.On("PlaceOrder", ctx, sess).Return(nil, apierror.ErrTransient).Once()

		_, err := svc.PlaceOrder(ctx, sess)
		assert.ErrorIs(t, err, apierror.ErrTransient)
		provider.AssertNumberOfCalls(t, "PlaceOrder", 1)
	})
}

// TestOrderService_TotalIsSnapshot checks that the total read back after
// placing an order matches the line snapshots even when catalog prices moved.
func TestOrderService_TotalIsSnapshot(t *testing.T) {
	ctx := context.Background()
	provider := new(MockOrderProvider)
	svc := NewOrderService(provider)

	lines := []struct {
		price    string
		quantity int
	}{
		{"19.99", 3}, {"5", 1}, {"0.01", 7}, {"1200.50", 2},
	}

	placed := &domain.Order{ID: "O9", PaymentStatus: domain.PaymentStatusPending}
	for _, l := range lines {
		placed.Items = append(placed.Items, domain.OrderItem{
			UnitPrice: decimal.RequireFromString(l.price),
			Quantity:  l.quantity,
		})
	}
	placed.TotalPrice = placed.ComputedTotal()

	// Catalog prices change after placement; the fetched order keeps its snapshots.
	fetched := *placed
	provider.On("PlaceOrder", ctx, sess).Return(placed, nil).Once()
	provider.On("FetchOrder", ctx, sess, "O9").Return(&fetched, nil).Once()

	_, err := svc.PlaceOrder(ctx, sess)
	require.NoError(t, err)

	got, err := svc.GetOrder(ctx, sess, "O9")
	require.NoError(t, err)
	assert.True(t, got.TotalPrice.Equal(decimal.RequireFromString("2466.04")))
	assert.NoError(t, got.ValidateTotal())
	provider.AssertExpectations(t)
}

func TestOrderService_GetOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingID", func(t *testing.T) {
		provider := new(MockOrderProvider)
		svc := NewOrderService(provider)

		_, err := svc.GetOrder(ctx, sess, " ")
		assert.ErrorIs(t, err, apierror.ErrInvalidInput)
		provider.AssertNotCalled(t, "FetchOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("NotFound", func(t *testing.T) {
		provider := new(MockOrderProvider)
		svc := NewOrderService(provider)

		provider.On("FetchOrder", ctx, sess, "nope").Return(nil, apierror.ErrOrderNotFound).Once()

		_, err := svc.GetOrder(ctx, sess, "nope")
		assert.ErrorIs(t, err, apierror.ErrNotFound)
		provider.AssertExpectations(t)
	})
}
