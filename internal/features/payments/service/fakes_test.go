package service

import (
	"context"
	"sync"

	"storefront-checkout/internal/core/apierror"
	ordersdomain "storefront-checkout/internal/features/orders/domain"
	"storefront-checkout/internal/features/payments/domain"
	sessiondomain "storefront-checkout/internal/features/session/domain"

	"github.com/shopspring/decimal"
)

var (
	sess  = &sessiondomain.Session{ID: "sess-1", Token: "jwt"}
	other = &sessiondomain.Session{ID: "sess-2", Token: "jwt-2"}

	validConf = &domain.PaymentConfirmation{PaymentID: "pay_1", OrderReference: "order_ref_O1", Signature: "sig"}
)

func order(id string, status ordersdomain.PaymentStatus) *ordersdomain.Order {
	return &ordersdomain.Order{
		ID:            id,
		TotalPrice:    decimal.RequireFromString("499.00"),
		PaymentStatus: status,
	}
}

func confirmed() domain.WidgetResult {
	return domain.WidgetResult{Outcome: domain.WidgetConfirmed, Confirmation: validConf}
}

// fakeOrders answers FetchOrder with fn, passing the 1-based call number.
type fakeOrders struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, call int) (*ordersdomain.Order, error)
}

func (f *fakeOrders) FetchOrder(ctx context.Context, _ *sessiondomain.Session, _ string) (*ordersdomain.Order, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	return f.fn(ctx, n)
}

func (f *fakeOrders) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// pollSequence returns results in order and repeats the last one.
func pollSequence(results ...func() (*ordersdomain.Order, error)) func(context.Context, int) (*ordersdomain.Order, error) {
	return func(_ context.Context, call int) (*ordersdomain.Order, error) {
		if call > len(results) {
			call = len(results)
		}
		return results[call-1]()
	}
}

func returns(o *ordersdomain.Order) func() (*ordersdomain.Order, error) {
	return func() (*ordersdomain.Order, error) { return o, nil }
}

func fails(err error) func() (*ordersdomain.Order, error) {
	return func() (*ordersdomain.Order, error) { return nil, err }
}

type fakeGateway struct {
	mu        sync.Mutex
	initiates int
	confirms  int
	initiate  func() (*domain.PaymentIntent, error)
	confirm   func(call int) (*ordersdomain.Order, error)
}

func (f *fakeGateway) InitiatePayment(_ context.Context, _ *sessiondomain.Session, orderID string) (*domain.PaymentIntent, error) {
	f.mu.Lock()
	f.initiates++
	f.mu.Unlock()
	if f.initiate != nil {
		return f.initiate()
	}
	return &domain.PaymentIntent{Reference: "order_ref_" + orderID, Amount: 49900, Currency: "INR", OrderID: orderID}, nil
}

func (f *fakeGateway) ConfirmPayment(_ context.Context, _ *sessiondomain.Session, _ domain.PaymentConfirmation) (*ordersdomain.Order, error) {
	f.mu.Lock()
	f.confirms++
	n := f.confirms
	f.mu.Unlock()
	if f.confirm != nil {
		return f.confirm(n)
	}
	return nil, apierror.ErrTransient
}

func (f *fakeGateway) Initiates() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initiates
}

func (f *fakeGateway) Confirms() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.confirms
}

// fakeWidget replies with whatever is sent on replies, or err right away.
type fakeWidget struct {
	replies chan domain.WidgetResult
	err     error
}

func newFakeWidget() *fakeWidget {
	return &fakeWidget{replies: make(chan domain.WidgetResult, 1)}
}

func (w *fakeWidget) Open(ctx context.Context, _ domain.PaymentIntent) (domain.WidgetResult, error) {
	if w.err != nil {
		return domain.WidgetResult{}, w.err
	}
	select {
	case r := <-w.replies:
		return r, nil
	case <-ctx.Done():
		return domain.WidgetResult{}, ctx.Err()
	}
}

// recorder collects observed statuses.
type recorder struct {
	mu       sync.Mutex
	statuses []domain.Status
}

func (r *recorder) observe(s domain.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

func (r *recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.statuses)
}

func (r *recorder) Count(state domain.State) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for i, s := range r.statuses {
		if s.State == state && (i == 0 || r.statuses[i-1].State != state) {
			n++
		}
	}
	return n
}

func (r *recorder) Last() domain.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.statuses) == 0 {
		return domain.Status{}
	}
	return r.statuses[len(r.statuses)-1]
}
