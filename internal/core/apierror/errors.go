// Package apierror defines the error taxonomy shared by the storefront backend
// client, the payment reconciliation loop and the HTTP handlers.
package apierror

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies an error for propagation and presentation.
type Kind string

const (
	KindUnknown          Kind = "unknown"
	KindUnauthenticated  Kind = "unauthenticated"
	KindUnauthorized     Kind = "unauthorized"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindSignatureInvalid Kind = "signature_invalid"
	KindTransient        Kind = "transient"
	KindTimeout          Kind = "timeout"
	KindInvalidInput     Kind = "invalid_input"
)

var (
	// ErrUnauthenticated means no session token is present.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUnauthorized means the backend rejected the token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound means the order or product does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means the request conflicts with the resource state.
	ErrConflict = errors.New("conflict")
	// ErrSignatureInvalid means the payment confirmation was rejected.
	ErrSignatureInvalid = errors.New("payment signature invalid")
	// ErrTransient covers network failures and 5xx responses.
	ErrTransient = errors.New("backend unavailable")
	// ErrTimeout means polling ran out of attempts before a terminal state.
	ErrTimeout = errors.New("timed out waiting for payment status")
	// ErrInvalidInput is a local validation failure; nothing was sent.
	ErrInvalidInput = errors.New("invalid input")
)

var (
	ErrEmptyCart        = fmt.Errorf("%w: cart is empty", ErrConflict)
	ErrOrderAlreadyPaid = fmt.Errorf("%w: order already paid", ErrConflict)
	ErrOrderNotFound    = fmt.Errorf("%w: order", ErrNotFound)
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrUnauthenticated, KindUnauthenticated},
	{ErrUnauthorized, KindUnauthorized},
	{ErrNotFound, KindNotFound},
	{ErrConflict, KindConflict},
	{ErrSignatureInvalid, KindSignatureInvalid},
	{ErrTransient, KindTransient},
	{ErrTimeout, KindTimeout},
	{ErrInvalidInput, KindInvalidInput},
}

// Error is a backend failure. It unwraps to one of the sentinel kinds above so
// callers match it with errors.Is.
type Error struct {
	// Op names the backend operation (e.g. "place order").
	Op string
	// StatusCode is the HTTP status, zero for network failures.
	StatusCode int
	// Message is the backend's descriptive payload, if any.
	Message string
	// Kind is the sentinel this error classifies as.
	Kind error
	// Err is the underlying cause (transport error, decode error).
	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf classifies err. Specialisations resolve to their parent kind.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	return KindUnknown
}

// IsTransient reports whether err is eligible for retry or poll continuation.
func IsTransient(err error) bool {
	return KindOf(err) == KindTransient
}
