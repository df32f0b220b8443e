package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront-checkout/internal/core/apierror"
	"storefront-checkout/internal/core/config"
	"storefront-checkout/internal/core/logger"
	"storefront-checkout/internal/core/metrics"
	ordersdomain "storefront-checkout/internal/features/orders/domain"
	"storefront-checkout/internal/features/payments/domain"
	"storefront-checkout/internal/features/payments/ports"
	sessiondomain "storefront-checkout/internal/features/session/domain"
	sessionports "storefront-checkout/internal/features/session/ports"

	"go.uber.org/zap"
)

const persistTimeout = 2 * time.Second

// ErrPaymentInProgress is returned when another session is paying the order.
var ErrPaymentInProgress = fmt.Errorf("%w: payment already in progress", apierror.ErrConflict)

// CheckoutDeps groups the collaborators of the CheckoutService.
type CheckoutDeps struct {
	Gateway   ports.PaymentGateway
	Orders    ports.OrderFetcher
	Widget    ports.PaymentWidget
	Callbacks ports.WidgetCallbacks
	Store     ports.StatusStore
	// Sessions is cleared when a loop ends with the token rejected.
	Sessions ports.SessionInvalidator
	Metrics  *metrics.Metrics
}

// CheckoutService implements ports.CheckoutService. It keeps at most one live
// reconciliation per order.
type CheckoutService struct {
	deps CheckoutDeps
	cfg  config.PaymentsConfig
	loop ReconcilerConfig

	mu   sync.Mutex
	live map[string]*liveEntry
}

type liveEntry struct {
	sessionID string
	// rec is nil while the payment is being initiated.
	rec *Reconciler
}

func (e *liveEntry) active() bool {
	if e.rec == nil {
		return true
	}
	select {
	case <-e.rec.Done():
		return false
	default:
		return true
	}
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(deps CheckoutDeps, cfg config.PaymentsConfig) *CheckoutService {
	return &CheckoutService{
		deps: deps,
		cfg:  cfg,
		loop: ReconcilerConfig{
			PollInterval:   cfg.PollInterval(),
			MaxAttempts:    cfg.PollMaxAttempts,
			ConfirmRetries: cfg.ConfirmRetries,
		},
		live: make(map[string]*liveEntry),
	}
}

// Start initiates payment for orderID and launches its reconciliation. If a
// loop is already live for the order and session, its status is returned and
// nothing new is started.
func (s *CheckoutService) Start(ctx context.Context, sess *sessiondomain.Session, orderID string) (domain.Status, error) {
	return s.launch(ctx, sess, orderID, true)
}

// Retry resumes polling for an order whose previous loop ended without a
// terminal state (typically a polling timeout). No new payment is initiated
// and no widget is opened.
func (s *CheckoutService) Retry(ctx context.Context, sess *sessiondomain.Session, orderID string) (domain.Status, error) {
	return s.launch(ctx, sess, orderID, false)
}

func (s *CheckoutService) launch(ctx context.Context, sess *sessiondomain.Session, orderID string, initiate bool) (domain.Status, error) {
	if !sess.Authenticated() {
		return domain.Status{}, apierror.ErrUnauthenticated
	}
	if orderID == "" {
		return domain.Status{}, fmt.Errorf("%w: order id is required", apierror.ErrInvalidInput)
	}

	s.mu.Lock()
	s.pruneLocked()
	if e, ok := s.live[orderID]; ok {
		owner, live := e.sessionID, e.rec
		s.mu.Unlock()
		if owner != sess.ID || live == nil {
			return domain.Status{}, ErrPaymentInProgress
		}
		return live.Snapshot(), nil
	}
	entry := &liveEntry{sessionID: sess.ID}
	s.live[orderID] = entry
	s.mu.Unlock()

	rec, err := s.newReconciler(ctx, sess, orderID, initiate)
	if err == nil {
		err = rec.Start(ctx)
	}

	s.mu.Lock()
	if err != nil {
		if s.live[orderID] == entry {
			delete(s.live, orderID)
		}
		s.mu.Unlock()
		return domain.Status{}, err
	}
	if s.live[orderID] != entry {
		// Cancelled while the payment was being initiated.
		s.mu.Unlock()
		rec.Cancel()
		return domain.Status{}, domain.ErrReconciliationCancelled
	}
	entry.rec = rec
	s.mu.Unlock()

	return rec.Snapshot(), nil
}

func (s *CheckoutService) newReconciler(ctx context.Context, sess *sessiondomain.Session, orderID string, initiate bool) (*Reconciler, error) {
	order, err := s.deps.Orders.FetchOrder(ctx, sess, orderID)
	if err != nil {
		return nil, err
	}
	if err := checkPayable(order); err != nil {
		return nil, err
	}

	var intent *domain.PaymentIntent
	widget := s.deps.Widget
	if initiate {
		intent, err = s.deps.Gateway.InitiatePayment(ctx, sess, orderID)
		if err != nil {
			return nil, err
		}
		logger.Get().Info("Payment initiated",
			zap.String("order_id", orderID),
			zap.String("reference", intent.Reference),
			zap.Int64("amount", intent.Amount),
			zap.String("currency", intent.Currency),
		)
	}
	if !initiate || !s.cfg.WidgetEnabled {
		widget = nil
	}

	machine := domain.NewMachine(orderID)
	rec := NewReconciler(sess, machine, intent, ReconcilerDeps{
		Gateway: s.deps.Gateway,
		Orders:  s.deps.Orders,
		Widget:  widget,
		Metrics: s.deps.Metrics,
	}, s.loop)
	rec.OnChange(s.persist(sess.ID))
	rec.OnChange(s.invalidateOnReject(sess.ID))
	return rec, nil
}

func checkPayable(order *ordersdomain.Order) error {
	switch {
	case order.IsPaid():
		return fmt.Errorf("%w: %s", apierror.ErrOrderAlreadyPaid, order.ID)
	case order.AwaitingPayment():
		return nil
	default:
		return fmt.Errorf("%w: order %s payment status is %s", apierror.ErrConflict, order.ID, order.PaymentStatus)
	}
}

// persist stores finished statuses so they stay readable after the loop is gone.
func (s *CheckoutService) persist(sessionID string) Observer {
	return func(status domain.Status) {
		if !status.Done || s.deps.Store == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.deps.Store.Save(ctx, sessionID, status, s.cfg.StatusTTL()); err != nil {
			logger.Get().Error("Failed to persist payment status", zap.String("order_id", status.OrderID), zap.Error(err))
		}
	}
}

// invalidateOnReject clears the session once its loop ends on a rejected token,
// the same way a request rejected by the backend does.
func (s *CheckoutService) invalidateOnReject(sessionID string) Observer {
	return func(status domain.Status) {
		if !status.Done || status.ErrorKind != apierror.KindUnauthorized || s.deps.Sessions == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.deps.Sessions.Clear(ctx, sessionID); err != nil {
			logger.Get().Error("Failed to clear rejected session", zap.String("order_id", status.OrderID), zap.Error(err))
			return
		}
		logger.Get().Info("Session cleared after the backend rejected its token", zap.String("order_id", status.OrderID))
	}
}

// Deliver hands a widget result to the loop of orderID.
func (s *CheckoutService) Deliver(ctx context.Context, sess *sessiondomain.Session, orderID string, result domain.WidgetResult) error {
	if !sess.Authenticated() {
		return apierror.ErrUnauthenticated
	}
	if err := result.Validate(); err != nil {
		return fmt.Errorf("%w: %w", apierror.ErrInvalidInput, err)
	}

	s.mu.Lock()
	e, ok := s.live[orderID]
	inProgress := ok && e.sessionID == sess.ID && e.rec != nil && e.active()
	s.mu.Unlock()
	if !inProgress {
		return fmt.Errorf("%w: no payment in progress for order %s", apierror.ErrNotFound, orderID)
	}
	if s.deps.Callbacks == nil {
		return fmt.Errorf("%w: payment widget callbacks are disabled", apierror.ErrConflict)
	}
	return s.deps.Callbacks.Deliver(orderID, result)
}

// Status returns the live status of orderID, or the stored one once the loop
// has finished.
func (s *CheckoutService) Status(ctx context.Context, sess *sessiondomain.Session, orderID string) (domain.Status, error) {
	if !sess.Authenticated() {
		return domain.Status{}, apierror.ErrUnauthenticated
	}
	var live *Reconciler
	s.mu.Lock()
	if e, ok := s.live[orderID]; ok && e.sessionID == sess.ID {
		live = e.rec
	}
	s.mu.Unlock()
	if live != nil {
		return live.Snapshot(), nil
	}

	if s.deps.Store == nil {
		return domain.Status{}, fmt.Errorf("%w: no payment status for order %s", apierror.ErrNotFound, orderID)
	}
	status, err := s.deps.Store.Get(ctx, sess.ID, orderID)
	if err != nil {
		return domain.Status{}, err
	}
	return *status, nil
}

// Cancel stops the loop of orderID. Cancelling an order without a live loop
// is a no-op.
func (s *CheckoutService) Cancel(ctx context.Context, sess *sessiondomain.Session, orderID string) error {
	if !sess.Authenticated() {
		return apierror.ErrUnauthenticated
	}
	s.mu.Lock()
	e, ok := s.live[orderID]
	if !ok || e.sessionID != sess.ID {
		s.mu.Unlock()
		return nil
	}
	delete(s.live, orderID)
	rec := e.rec
	s.mu.Unlock()

	if rec != nil {
		rec.Cancel()
		logger.Get().Info("Reconciliation cancelled", zap.String("order_id", orderID))
	}
	return nil
}

// CancelSession cancels every loop started by sessionID. It returns once none
// of them can touch the backend again.
func (s *CheckoutService) CancelSession(sessionID string) {
	n := s.cancelWhere(func(e *liveEntry) bool { return e.sessionID == sessionID })
	if n > 0 {
		logger.Get().Info("Session reconciliations cancelled", zap.Int("count", n))
	}
}

// Shutdown cancels every live loop.
func (s *CheckoutService) Shutdown() {
	s.cancelWhere(func(*liveEntry) bool { return true })
}

func (s *CheckoutService) cancelWhere(match func(*liveEntry) bool) int {
	s.mu.Lock()
	var recs []*Reconciler
	for id, e := range s.live {
		if !match(e) {
			continue
		}
		if e.rec != nil {
			recs = append(recs, e.rec)
		}
		delete(s.live, id)
	}
	s.mu.Unlock()

	for _, rec := range recs {
		rec.Cancel()
	}
	return len(recs)
}

// pruneLocked forgets loops that have exited; their status is in the store.
func (s *CheckoutService) pruneLocked() {
	for id, e := range s.live {
		if !e.active() {
			delete(s.live, id)
		}
	}
}

// IsLive reports whether a loop is running for orderID.
func (s *CheckoutService) IsLive(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live[orderID]
	return ok && e.active()
}

var (
	_ ports.CheckoutService        = (*CheckoutService)(nil)
	_ sessionports.SessionTeardown = (*CheckoutService)(nil)
)
