package domain

import (
	"fmt"
	"testing"

	"storefront-checkout/internal/core/apierror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStatus(t *testing.T) {
	t.Run("Processing", func(t *testing.T) {
		m := NewMachine("O1")
		require.NoError(t, m.Begin("start"))

		s := NewStatus(m, 2, false, nil, &PaymentIntent{Reference: "order_1"})
		assert.True(t, s.Processing)
		assert.False(t, s.Done)
		assert.Equal(t, 2, s.PollAttempts)
		assert.Empty(t, s.RedirectTo)
		assert.False(t, s.CanRetry)
	})

	t.Run("Paid", func(t *testing.T) {
		m := NewMachine("O1")
		require.NoError(t, m.Begin("start"))
		require.NoError(t, m.MarkPaid("confirmed"))

		s := NewStatus(m, 0, true, nil, nil)
		assert.False(t, s.Processing)
		assert.Equal(t, "/order/O1", s.RedirectTo)
	})

	t.Run("Timeout", func(t *testing.T) {
		m := NewMachine("O1")
		require.NoError(t, m.Begin("start"))

		s := NewStatus(m, 60, true, fmt.Errorf("reconcile: %w", apierror.ErrTimeout), nil)
		assert.False(t, s.Processing)
		assert.True(t, s.CanRetry)
		assert.Equal(t, apierror.KindTimeout, s.ErrorKind)
		assert.Equal(t, StateAwaitingConfirmation, s.State)
	})
}

func TestPaymentErrors_AreConflicts(t *testing.T) {
	for _, err := range []error{ErrPaymentCancelled, ErrPaymentFailed, ErrReconciliationCancelled} {
		t.Run(err.Error(), func(t *testing.T) {
			assert.ErrorIs(t, err, apierror.ErrConflict)
			assert.Equal(t, apierror.KindConflict, apierror.KindOf(err))
		})
	}

	m := NewMachine("O1")
	require.NoError(t, m.Begin("start"))
	s := NewStatus(m, 0, true, ErrPaymentCancelled, nil)
	assert.Equal(t, apierror.KindConflict, s.ErrorKind)
	assert.False(t, s.CanRetry)
}
