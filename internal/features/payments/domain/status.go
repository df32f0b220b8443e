package domain

import (
	"time"

	"storefront-checkout/internal/core/apierror"
	ordersdomain "storefront-checkout/internal/features/orders/domain"
)

// Status is the view of one reconciliation exposed to the front end and kept
// in the status store once the loop has finished.
type Status struct {
	OrderID string `json:"order_id"`
	State   State  `json:"state"`
	// Processing drives the blocking "processing" indicator.
	Processing bool `json:"processing"`
	// Done is set once the loop stopped, whatever the outcome.
	Done bool `json:"done"`
	// PollAttempts is the number of order status polls issued.
	PollAttempts int `json:"poll_attempts"`
	// ErrorKind classifies the error that ended the loop, if any.
	ErrorKind apierror.Kind `json:"error_kind,omitempty"`
	Error     string        `json:"error,omitempty"`
	// CanRetry is set after a polling timeout; a manual retry resumes polling.
	CanRetry bool `json:"can_retry"`
	// RedirectTo is the order confirmation view once Paid.
	RedirectTo string         `json:"redirect_to,omitempty"`
	Intent     *PaymentIntent `json:"intent,omitempty"`
	History    []Transition   `json:"history"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// NewStatus builds a status from the machine and the loop's outcome.
func NewStatus(m *Machine, attempts int, done bool, err error, intent *PaymentIntent) Status {
	s := Status{
		OrderID:      m.OrderID(),
		State:        m.State(),
		Processing:   m.IsProcessing() && !done,
		Done:         done,
		PollAttempts: attempts,
		Intent:       intent,
		History:      m.History(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err != nil {
		s.Error = err.Error()
		s.ErrorKind = apierror.KindOf(err)
	}
	s.CanRetry = done && m.IsProcessing() && s.ErrorKind == apierror.KindTimeout
	if m.State() == StatePaid {
		s.RedirectTo = ordersdomain.ConfirmationPath(m.OrderID())
	}
	return s
}
