package domain

import (
	"errors"
	"fmt"
	"time"

	ordersdomain "storefront-checkout/internal/features/orders/domain"
)

var (
	// ErrInvalidTransition is returned for a transition the lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid order state transition")
	// ErrTerminalState is returned for any transition out of Paid or Failed.
	ErrTerminalState = errors.New("order is already in a terminal state")
)

// State is the client-side payment lifecycle of one order.
type State string

const (
	StateCreated              State = "Created"
	StateAwaitingConfirmation State = "AwaitingConfirmation"
	StatePaid                 State = "Paid"
	StateFailed               State = "Failed"
)

// IsTerminal reports whether s is Paid or Failed.
func (s State) IsTerminal() bool {
	return s == StatePaid || s == StateFailed
}

// Transition records one applied state change.
type Transition struct {
	From   State     `json:"from"`
	To     State     `json:"to"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// Machine tracks the payment lifecycle of one order:
//
//	Created -> AwaitingConfirmation -> Paid | Failed
//
// It performs no I/O and is not safe for concurrent use; the reconciliation
// loop serializes every call.
type Machine struct {
	orderID string
	state   State
	history []Transition
}

// NewMachine returns a machine in Created.
func NewMachine(orderID string) *Machine {
	return &Machine{orderID: orderID, state: StateCreated}
}

// OrderID returns the order this machine tracks.
func (m *Machine) OrderID() string { return m.orderID }

// State returns the current state.
func (m *Machine) State() State { return m.state }

// IsTerminal reports whether the machine reached Paid or Failed.
func (m *Machine) IsTerminal() bool { return m.state.IsTerminal() }

// IsProcessing reports whether a payment is being confirmed.
func (m *Machine) IsProcessing() bool { return m.state == StateAwaitingConfirmation }

// CanPay reports whether a payment may be started.
func (m *Machine) CanPay() bool { return m.state == StateCreated }

// History returns a copy of the applied transitions, oldest first.
func (m *Machine) History() []Transition {
	out := make([]Transition, len(m.history))
	copy(out, m.history)
	return out
}

// Begin moves Created to AwaitingConfirmation once a payment intent exists.
func (m *Machine) Begin(reason string) error {
	return m.transition(StateAwaitingConfirmation, reason)
}

// MarkPaid moves AwaitingConfirmation to Paid.
func (m *Machine) MarkPaid(reason string) error {
	return m.transition(StatePaid, reason)
}

// MarkFailed moves AwaitingConfirmation to Failed.
func (m *Machine) MarkFailed(reason string) error {
	return m.transition(StateFailed, reason)
}

// Observe applies a backend-reported order. A Pending order changes nothing;
// Paid and Failed drive the matching terminal transition. It reports whether a
// transition was applied.
func (m *Machine) Observe(order *ordersdomain.Order, reason string) (bool, error) {
	switch {
	case order == nil:
		return false, nil
	case order.IsPaid():
		return true, m.MarkPaid(reason)
	case order.PaymentFailed():
		return true, m.MarkFailed(reason)
	default:
		return false, nil
	}
}

func (m *Machine) transition(to State, reason string) error {
	if m.state.IsTerminal() {
		return fmt.Errorf("%w: %s is %s, cannot move to %s", ErrTerminalState, m.orderID, m.state, to)
	}
	if !allowed(m.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, to)
	}
	m.history = append(m.history, Transition{
		From:   m.state,
		To:     to,
		Reason: reason,
		At:     time.Now().UTC(),
	})
	m.state = to
	return nil
}

// allowed encodes the lifecycle. Created never jumps straight to a terminal
// state, even when the backend settles synchronously.
func allowed(from, to State) bool {
	switch from {
	case StateCreated:
		return to == StateAwaitingConfirmation
	case StateAwaitingConfirmation:
		return to == StatePaid || to == StateFailed
	default:
		return false
	}
}
