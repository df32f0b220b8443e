package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront-checkout/internal/core/apierror"
	"storefront-checkout/internal/core/logger"
	"storefront-checkout/internal/core/metrics"
	ordersdomain "storefront-checkout/internal/features/orders/domain"
	"storefront-checkout/internal/features/payments/domain"
	"storefront-checkout/internal/features/payments/ports"
	sessiondomain "storefront-checkout/internal/features/session/domain"

	"go.uber.org/zap"
)

// ErrAlreadyStarted is returned by a second call to Start.
var ErrAlreadyStarted = errors.New("reconciliation already started")

// ReconcilerConfig tunes one reconciliation loop.
type ReconcilerConfig struct {
	// PollInterval is the delay between the end of one poll and the next.
	PollInterval time.Duration
	// MaxAttempts bounds the number of polls before the loop times out.
	MaxAttempts int
	// ConfirmRetries is how often a transient confirmation failure is retried.
	ConfirmRetries int
}

// Observer is notified of every applied transition and of the final status.
// It runs while the reconciler holds its lock and must not call back into it.
type Observer func(status domain.Status)

// Reconciler drives one order from Created to a terminal state. A single loop
// goroutine owns the poll timer and applies every transition, so transitions
// are serialized. The widget runs in its own goroutine and hands its result
// to the loop over a channel.
type Reconciler struct {
	sess    *sessiondomain.Session
	intent  *domain.PaymentIntent
	gateway ports.PaymentGateway
	orders  ports.OrderFetcher
	widget  ports.PaymentWidget
	cfg     ReconcilerConfig
	metrics *metrics.Metrics
	log     *zap.Logger

	mu        sync.Mutex
	machine   *domain.Machine
	attempts  int
	started   bool
	finished  bool
	cancelled bool
	err       error
	observers []Observer

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	// widgetDone is closed when the widget goroutine has returned.
	widgetDone chan struct{}
}

// ReconcilerDeps groups the collaborators of a Reconciler. Widget may be nil
// for a polling-only loop.
type ReconcilerDeps struct {
	Gateway ports.PaymentGateway
	Orders  ports.OrderFetcher
	Widget  ports.PaymentWidget
	Metrics *metrics.Metrics
}

// NewReconciler prepares a loop for machine's order. intent is nil when the
// loop resumes polling without a new payment attempt.
func NewReconciler(sess *sessiondomain.Session, machine *domain.Machine, intent *domain.PaymentIntent, deps ReconcilerDeps, cfg ReconcilerConfig) *Reconciler {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.ConfirmRetries < 0 {
		cfg.ConfirmRetries = 0
	}
	return &Reconciler{
		sess:    sess,
		intent:  intent,
		gateway: deps.Gateway,
		orders:  deps.Orders,
		widget:  deps.Widget,
		cfg:     cfg,
		metrics: deps.Metrics,
		log:     logger.Named("reconciler").With(zap.String("order_id", machine.OrderID())),
		machine: machine,
		done:    make(chan struct{}),
	}
}

// OnChange registers an observer. Call it before Start.
func (r *Reconciler) OnChange(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

// OrderID returns the order being reconciled.
func (r *Reconciler) OrderID() string {
	return r.machine.OrderID()
}

// Start moves the order to AwaitingConfirmation and launches the loop. The
// loop outlives ctx's cancellation but keeps its values; use Cancel to stop it.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return ErrAlreadyStarted
	}
	if r.cancelled {
		return domain.ErrReconciliationCancelled
	}
	switch {
	case r.machine.CanPay():
		if err := r.applyLocked(r.machine.Begin, "payment initiated"); err != nil {
			return err
		}
	case r.machine.IsProcessing():
		r.log.Info("Resuming reconciliation")
	default:
		return fmt.Errorf("%w: order %s is %s", apierror.ErrConflict, r.machine.OrderID(), r.machine.State())
	}

	r.started = true
	r.ctx, r.cancel = context.WithCancel(context.WithoutCancel(ctx))
	if r.metrics != nil {
		r.metrics.ActiveReconciliations.Inc()
	}

	var widgetCh chan widgetOutcome
	if r.widget != nil && r.intent != nil {
		widgetCh = make(chan widgetOutcome, 1)
		r.widgetDone = make(chan struct{})
		go r.openWidget(widgetCh)
	}
	go r.run(widgetCh)
	return nil
}

type widgetOutcome struct {
	result domain.WidgetResult
	err    error
}

func (r *Reconciler) openWidget(out chan<- widgetOutcome) {
	defer close(r.widgetDone)
	res, err := r.widget.Open(r.ctx, *r.intent)
	out <- widgetOutcome{result: res, err: err}
}

func (r *Reconciler) run(widgetCh chan widgetOutcome) {
	defer close(r.done)
	if r.metrics != nil {
		defer r.metrics.ActiveReconciliations.Dec()
	}
	// Whatever ends the loop also closes the widget, so its slot is free
	// before Done reports the loop as gone.
	defer r.release()

	timer := time.NewTimer(r.cfg.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case out := <-widgetCh:
			widgetCh = nil
			if r.handleWidget(out) {
				return
			}
		case <-timer.C:
			// A widget result that is already available wins over the poll.
			select {
			case out := <-widgetCh:
				widgetCh = nil
				if r.handleWidget(out) {
					return
				}
			default:
			}
			if r.poll() {
				return
			}
			timer.Reset(r.cfg.PollInterval)
		}
	}
}

func (r *Reconciler) release() {
	r.cancel()
	if r.widgetDone != nil {
		<-r.widgetDone
	}
}

// handleWidget reacts to the widget and reports whether the loop is over.
func (r *Reconciler) handleWidget(out widgetOutcome) bool {
	if r.stopped() {
		return true
	}
	if out.err != nil {
		r.log.Warn("Payment widget unavailable, relying on polling", zap.Error(out.err))
		return false
	}

	switch out.result.Outcome {
	case domain.WidgetCancelled:
		r.log.Info("Payment widget dismissed")
		r.finish(domain.ErrPaymentCancelled, "cancelled_by_user")
		return true
	case domain.WidgetFailed:
		reason := out.result.Reason
		if reason == "" {
			reason = "gateway reported failure"
		}
		r.settle(r.machine.MarkFailed, "widget: "+reason, fmt.Errorf("%w: %s", domain.ErrPaymentFailed, reason), "failed")
		return true
	case domain.WidgetConfirmed:
		if out.result.Confirmation == nil {
			r.log.Warn("Widget confirmed without a confirmation, relying on polling")
			return false
		}
		return r.handleConfirmation(*out.result.Confirmation)
	default:
		r.log.Warn("Ignoring unknown widget outcome", zap.String("outcome", string(out.result.Outcome)))
		return false
	}
}

func (r *Reconciler) handleConfirmation(conf domain.PaymentConfirmation) bool {
	order, err := r.confirm(conf)
	if r.stopped() {
		return true
	}

	switch {
	case err == nil:
		return r.observe(order, "payment confirmed")
	case errors.Is(err, apierror.ErrSignatureInvalid):
		r.settle(r.machine.MarkFailed, "signature rejected", err, "failed")
		return true
	case errors.Is(err, apierror.ErrOrderAlreadyPaid):
		r.settle(r.machine.MarkPaid, "backend reports order already paid", nil, "paid")
		return true
	case apierror.IsTransient(err):
		r.log.Warn("Confirmation unavailable, relying on polling", zap.Error(err))
		return false
	default:
		r.finish(err, "error")
		return true
	}
}

// confirm submits conf, retrying transient failures up to ConfirmRetries times.
func (r *Reconciler) confirm(conf domain.PaymentConfirmation) (*ordersdomain.Order, error) {
	var lastErr error
	for attempt := 0; attempt <= r.cfg.ConfirmRetries; attempt++ {
		if r.stopped() {
			return nil, domain.ErrReconciliationCancelled
		}
		order, err := r.gateway.ConfirmPayment(r.ctx, r.sess, conf)
		if err == nil {
			return order, nil
		}
		lastErr = err
		if !apierror.IsTransient(err) {
			return nil, err
		}
		r.log.Warn("Transient confirmation failure", zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return nil, lastErr
}

// poll fetches the order once and reports whether the loop is over.
func (r *Reconciler) poll() bool {
	r.mu.Lock()
	if r.cancelled || r.finished {
		r.mu.Unlock()
		return true
	}
	r.attempts++
	attempt := r.attempts
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.PollAttempts.Inc()
	}

	order, err := r.orders.FetchOrder(r.ctx, r.sess, r.machine.OrderID())
	if r.stopped() {
		return true
	}

	if err != nil {
		if !apierror.IsTransient(err) {
			r.finish(err, "error")
			return true
		}
		r.log.Warn("Transient poll failure", zap.Int("attempt", attempt), zap.Error(err))
	} else if r.observe(order, fmt.Sprintf("poll %d", attempt)) {
		return true
	}

	if attempt >= r.cfg.MaxAttempts {
		r.finish(&apierror.Error{
			Op:      "reconcile payment",
			Message: fmt.Sprintf("order %s still pending after %d polls", r.machine.OrderID(), attempt),
			Kind:    apierror.ErrTimeout,
		}, "timeout")
		return true
	}
	return false
}

// observe applies a backend-reported order and reports whether it was terminal.
func (r *Reconciler) observe(order *ordersdomain.Order, reason string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled || r.finished {
		return true
	}

	terminal := false
	err := r.applyLocked(func(reason string) error {
		var err error
		terminal, err = r.machine.Observe(order, reason)
		return err
	}, reason)
	if !terminal {
		return false
	}
	if err != nil {
		r.log.Debug("Discarded transition", zap.String("reason", reason), zap.Error(err))
	}

	if order.PaymentFailed() {
		r.finishLocked(fmt.Errorf("%w: backend reports payment failed", domain.ErrPaymentFailed), "failed")
	} else {
		r.finishLocked(nil, "paid")
	}
	return true
}

// settle applies a terminal transition and finishes the loop in one step,
// unless the loop was cancelled or already finished.
func (r *Reconciler) settle(transition func(string) error, reason string, err error, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled || r.finished {
		return
	}
	if terr := r.applyLocked(transition, reason); terr != nil {
		r.log.Debug("Discarded transition", zap.String("reason", reason), zap.Error(terr))
	}
	r.finishLocked(err, outcome)
}

func (r *Reconciler) applyLocked(transition func(string) error, reason string) error {
	from := r.machine.State()
	if err := transition(reason); err != nil {
		return err
	}
	to := r.machine.State()
	if to == from {
		return nil
	}

	r.log.Info("Order state transition",
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("reason", reason),
	)
	if r.metrics != nil {
		r.metrics.Transitions.WithLabelValues(string(to)).Inc()
	}
	r.notifyLocked()
	return nil
}

// finish records the loop's result once. A cancelled loop records nothing.
func (r *Reconciler) finish(err error, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled || r.finished {
		return
	}
	r.finishLocked(err, outcome)
}

func (r *Reconciler) finishLocked(err error, outcome string) {
	r.finished = true
	r.err = err

	fields := []zap.Field{zap.String("outcome", outcome), zap.Int("poll_attempts", r.attempts)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	r.log.Info("Reconciliation finished", fields...)
	if r.metrics != nil {
		r.metrics.Reconciliations.WithLabelValues(outcome).Inc()
	}
	r.notifyLocked()
}

func (r *Reconciler) notifyLocked() {
	status := r.snapshotLocked()
	for _, o := range r.observers {
		o(status)
	}
}

func (r *Reconciler) stopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled || r.finished
}

// Cancel stops the loop and waits for it to exit. Once it returns, no
// transition is applied, no observer is called and no backend call is
// started. Results that arrive later are discarded. Cancel is idempotent.
func (r *Reconciler) Cancel() {
	r.mu.Lock()
	started := r.started
	if !r.cancelled && !r.finished {
		r.cancelled = true
		r.err = domain.ErrReconciliationCancelled
		if r.metrics != nil && started {
			r.metrics.Reconciliations.WithLabelValues("cancelled").Inc()
		}
	}
	r.mu.Unlock()

	if !started {
		return
	}
	r.cancel()
	<-r.done
}

// Done is closed when the loop goroutine has exited.
func (r *Reconciler) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the loop exits or ctx is done and returns the final state
// and error.
func (r *Reconciler) Wait(ctx context.Context) (domain.State, error) {
	select {
	case <-r.done:
	case <-ctx.Done():
		return r.State(), ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.State(), r.err
}

// State returns the current machine state.
func (r *Reconciler) State() domain.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.State()
}

// Snapshot returns the current status.
func (r *Reconciler) Snapshot() domain.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Reconciler) snapshotLocked() domain.Status {
	return domain.NewStatus(r.machine, r.attempts, r.finished || r.cancelled, r.err, r.intent)
}
