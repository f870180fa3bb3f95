package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dtroode/sickfits-server/internal/logger"
	"github.com/dtroode/sickfits-server/internal/model"
)

const tracerName = "github.com/dtroode/sickfits-server/internal/service"

// Checkout outcomes reported to metrics.
const (
	OutcomeSuccess         = "success"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeInvalid         = "invalid"
	OutcomeDeclined        = "declined"
	OutcomeUpstreamFailure = "upstream_failure"
	OutcomeInconsistent    = "inconsistent"
	OutcomeError           = "error"
)

// CheckoutConfig configures the checkout pipeline.
type CheckoutConfig struct {
	Currency string
	LockTTL  time.Duration
}

// Checkout turns a principal's cart into a paid order:
// LOAD_CART, PRICE, CHARGE, MATERIALIZE_ORDER, CLEAR_CART.
// Once the gateway has been asked to charge, the attempt is either completed
// or left in a state the next checkout and the reconciler pick up; it never
// silently drops a paid order or charges twice.
type Checkout struct {
	carts     model.CartStore
	checkouts model.CheckoutStore
	orders    model.OrderStore
	gateway   model.PaymentGateway
	locker    model.Locker
	events    model.EventPublisher
	metrics   model.CheckoutMetrics
	logger    *logger.Logger
	timeouts  Timeouts
	cfg       CheckoutConfig
	tracer    trace.Tracer
	now       func() time.Time
}

func NewCheckout(
	carts model.CartStore,
	checkouts model.CheckoutStore,
	orders model.OrderStore,
	gateway model.PaymentGateway,
	locker model.Locker,
	events model.EventPublisher,
	metrics model.CheckoutMetrics,
	logger *logger.Logger,
	timeouts Timeouts,
	cfg CheckoutConfig,
) *Checkout {
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	return &Checkout{
		carts:     carts,
		checkouts: checkouts,
		orders:    orders,
		gateway:   gateway,
		locker:    locker,
		events:    events,
		metrics:   metrics,
		logger:    logger,
		timeouts:  timeouts,
		cfg:       cfg,
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}
}

// CreateOrder charges source for the principal's cart at current catalog
// prices and returns the resulting order. An attempt left open by an earlier
// call is finished first, with its own payment source and idempotency key.
func (c *Checkout) CreateOrder(ctx context.Context, p model.Principal, source string) (order model.Order, err error) {
	ctx, span := c.tracer.Start(ctx, "checkout")
	start := c.now()
	defer func() {
		outcome := checkoutOutcome(err)
		c.metrics.ObserveCheckout(outcome, c.now().Sub(start))
		span.SetAttributes(attribute.String("checkout.outcome", outcome))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
	}()

	if p.IsAnonymous() {
		return model.Order{}, model.NewErrAuthenticationRequired()
	}
	if source == "" {
		return model.Order{}, model.NewErrValidation("payment token is required")
	}
	span.SetAttributes(attribute.String("user.id", p.ID.String()))

	c.logger.Debug("Checkout service: starting checkout",
		"user_id", p.ID.String())

	release, err := c.lock(ctx, p.ID)
	if err != nil {
		return model.Order{}, err
	}
	defer release()

	open, found, err := c.openAttempt(ctx, p.ID)
	if err != nil {
		return model.Order{}, err
	}
	if found {
		c.logger.Info("Checkout service: resuming open checkout attempt",
			"user_id", p.ID.String(),
			"attempt_id", open.ID.String(),
			"status", string(open.Status))
		order, err = c.resume(ctx, open)
		if !settledWithoutCharge(err) {
			return order, err
		}
	}

	lines, taken, err := c.loadCart(ctx, p.ID)
	if err != nil {
		return model.Order{}, err
	}

	total := c.price(ctx, lines)

	now := c.now()
	attempt := model.CheckoutAttempt{
		ID:        uuid.New(),
		UserID:    p.ID,
		Status:    model.CheckoutPending,
		Total:     total,
		Currency:  c.cfg.Currency,
		Source:    source,
		CartItems: taken,
		Lines:     lines,
		CreatedAt: now,
		UpdatedAt: now,
	}

	storeCtx, cancel := withTimeout(ctx, c.timeouts.Store)
	err = c.checkouts.Create(storeCtx, attempt)
	cancel()
	if err != nil {
		c.logger.Error("Checkout service: failed to record checkout attempt",
			"user_id", p.ID.String(),
			"error", err.Error())
		return model.Order{}, fmt.Errorf("failed to create checkout attempt: %w", err)
	}

	return c.execute(ctx, attempt)
}

// lock serializes checkouts of one principal.
func (c *Checkout) lock(ctx context.Context, userID uuid.UUID) (func(), error) {
	lockCtx, cancel := withTimeout(ctx, c.timeouts.Store)
	defer cancel()

	release, err := c.locker.Acquire(lockCtx, "checkout:"+userID.String(), c.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, model.ErrLockHeld) {
			return nil, model.NewErrValidation("checkout already in progress")
		}
		return nil, model.NewErrUpstream("acquire checkout lock", err)
	}

	return func() {
		releaseCtx, cancel := withTimeout(context.WithoutCancel(ctx), c.timeouts.Store)
		defer cancel()
		if err := release(releaseCtx); err != nil {
			c.logger.Warn("Checkout service: failed to release checkout lock",
				"user_id", userID.String(),
				"error", err.Error())
		}
	}, nil
}

func (c *Checkout) openAttempt(ctx context.Context, userID uuid.UUID) (model.CheckoutAttempt, bool, error) {
	storeCtx, cancel := withTimeout(ctx, c.timeouts.Store)
	defer cancel()

	attempt, err := c.checkouts.FindOpen(storeCtx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.CheckoutAttempt{}, false, nil
		}
		return model.CheckoutAttempt{}, false, fmt.Errorf("failed to find open checkout attempt: %w", err)
	}
	return attempt, true, nil
}

// resume drives an open attempt to completion. A confirmed charge is
// materialized; otherwise the capture is repeated under the attempt's
// idempotency key so the gateway charges at most once.
func (c *Checkout) resume(ctx context.Context, attempt model.CheckoutAttempt) (model.Order, error) {
	switch attempt.Status {
	case model.CheckoutCharged, model.CheckoutInconsistent:
		if attempt.ChargeID == "" {
			return model.Order{}, model.NewErrInconsistentCheckout(attempt.ID, errors.New("charged attempt has no charge id"))
		}
		return c.finish(ctx, attempt, model.Charge{ID: attempt.ChargeID, Amount: attempt.ChargedAmount})
	case model.CheckoutPending, model.CheckoutChargeUnknown:
		return c.execute(ctx, attempt)
	default:
		return model.Order{}, model.NewErrValidation(
			fmt.Sprintf("checkout attempt is %s and cannot be resumed", attempt.Status))
	}
}

// execute captures the attempt's payment and finishes the order. A decline
// or an invalid source fails the attempt; any other gateway error leaves the
// outcome unknown.
func (c *Checkout) execute(ctx context.Context, attempt model.CheckoutAttempt) (model.Order, error) {
	charge, err := c.charge(ctx, attempt)
	if err != nil {
		if settledWithoutCharge(err) {
			c.markFailed(ctx, attempt.ID, err)
			return model.Order{}, err
		}
		return model.Order{}, c.chargeUnknown(ctx, attempt, err)
	}

	return c.finish(ctx, attempt, charge)
}

// finish records the charge, persists the order and clears the cart.
func (c *Checkout) finish(ctx context.Context, attempt model.CheckoutAttempt, charge model.Charge) (model.Order, error) {
	// The customer has paid. Cancellation of the request must not stop the
	// remaining steps.
	ctx = context.WithoutCancel(ctx)

	if charge.Amount != attempt.Total {
		c.logger.Warn("Checkout service: captured amount differs from cart total",
			"attempt_id", attempt.ID.String(),
			"total", attempt.Total,
			"captured", charge.Amount)
	}

	storeCtx, cancel := withTimeout(ctx, c.timeouts.Store)
	err := c.checkouts.MarkCharged(storeCtx, attempt.ID, charge.ID, charge.Amount)
	cancel()
	if err != nil {
		return model.Order{}, c.inconsistent(ctx, attempt, charge, fmt.Errorf("failed to mark attempt charged: %w", err))
	}

	order, err := c.materialize(ctx, attempt, charge)
	if err != nil {
		return model.Order{}, c.inconsistent(ctx, attempt, charge, err)
	}

	c.publish(ctx, model.Event{
		Type:   model.EventOrderCreated,
		UserID: attempt.UserID.String(),
		Metadata: map[string]any{
			"order_id":   order.ID.String(),
			"attempt_id": attempt.ID.String(),
			"total":      order.Total,
			"charge_id":  order.ChargeID,
		},
	})

	c.logger.Info("Checkout service: order created",
		"user_id", attempt.UserID.String(),
		"order_id", order.ID.String(),
		"attempt_id", attempt.ID.String(),
		"total", order.Total)

	return order, nil
}

// loadCart snapshots every cart line whose item still exists. The quantities
// of all lines, including those of deleted items, are returned so they are
// cleared together with the rest.
func (c *Checkout) loadCart(ctx context.Context, userID uuid.UUID) ([]model.OrderLine, []model.CartTake, error) {
	ctx, span := c.tracer.Start(ctx, "checkout.load_cart")
	defer span.End()

	storeCtx, cancel := withTimeout(ctx, c.timeouts.Store)
	defer cancel()

	cart, err := c.carts.ListLines(storeCtx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cart) == 0 {
		return nil, nil, model.NewErrValidation("your cart is empty")
	}

	lines := make([]model.OrderLine, 0, len(cart))
	taken := make([]model.CartTake, 0, len(cart))
	for _, l := range cart {
		taken = append(taken, model.CartTake{CartItemID: l.ID, Quantity: l.Quantity})
		if l.Item == nil {
			c.logger.Info("Checkout service: skipping cart line of deleted item",
				"cart_item_id", l.ID.String(),
				"item_id", l.ItemID.String())
			continue
		}
		lines = append(lines, model.SnapshotLine(*l.Item, l.Quantity))
	}
	if len(lines) == 0 {
		return nil, nil, model.NewErrValidation("none of the items in your cart are available")
	}

	span.SetAttributes(
		attribute.Int("cart.lines", len(cart)),
		attribute.Int("cart.skipped", len(cart)-len(lines)),
	)
	return lines, taken, nil
}

func (c *Checkout) price(ctx context.Context, lines []model.OrderLine) int64 {
	_, span := c.tracer.Start(ctx, "checkout.price")
	defer span.End()

	total := Price(lines)
	span.SetAttributes(attribute.Int64("checkout.total", total))
	return total
}

// Price sums price times quantity over lines.
func Price(lines []model.OrderLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.Subtotal()
	}
	return total
}

func (c *Checkout) charge(ctx context.Context, attempt model.CheckoutAttempt) (model.Charge, error) {
	ctx, span := c.tracer.Start(ctx, "checkout.charge")
	defer span.End()
	span.SetAttributes(attribute.String("checkout.attempt_id", attempt.ID.String()))

	payCtx, cancel := withTimeout(ctx, c.timeouts.Payment)
	defer cancel()

	charge, err := c.gateway.Capture(payCtx, model.CaptureRequest{
		Amount:         attempt.Total,
		Currency:       attempt.Currency,
		Source:         attempt.Source,
		IdempotencyKey: attempt.ID.String(),
		Description:    "Sick Fits order " + attempt.ID.String(),
	})
	if err != nil {
		span.RecordError(err)
		c.logger.Info("Checkout service: payment failed",
			"attempt_id", attempt.ID.String(),
			"error", err.Error())
		switch {
		case errors.Is(err, model.ErrCardDeclined):
			return model.Charge{}, model.NewErrPaymentDeclined(err)
		case errors.Is(err, model.ErrInvalidPaymentSource):
			return model.Charge{}, model.NewErrInvalidPaymentSource(err)
		default:
			return model.Charge{}, model.NewErrUpstream("capture payment", err)
		}
	}

	span.SetAttributes(attribute.String("payment.charge_id", charge.ID))
	return charge, nil
}

// settledWithoutCharge reports whether err proves nothing was captured.
func settledWithoutCharge(err error) bool {
	kind := model.KindOf(err)
	return kind == model.KindPaymentDeclined || kind == model.KindValidationFailed
}

// materialize persists the order from the attempt snapshot, then completes
// the attempt while taking the paid quantities out of the cart. Every step is
// idempotent so a stuck attempt can be replayed.
func (c *Checkout) materialize(ctx context.Context, attempt model.CheckoutAttempt, charge model.Charge) (model.Order, error) {
	order, err := c.saveOrder(ctx, attempt, charge)
	if err != nil {
		return model.Order{}, err
	}

	if err := c.clearCart(ctx, attempt, order.ID); err != nil {
		return model.Order{}, err
	}

	return order, nil
}

func (c *Checkout) saveOrder(ctx context.Context, attempt model.CheckoutAttempt, charge model.Charge) (model.Order, error) {
	ctx, span := c.tracer.Start(ctx, "checkout.materialize_order")
	defer span.End()

	storeCtx, cancel := withTimeout(ctx, c.timeouts.Store)
	defer cancel()

	order, err := c.orders.Create(storeCtx, model.Order{
		ID:         uuid.New(),
		OwnerID:    attempt.UserID,
		CheckoutID: attempt.ID,
		Total:      charge.Amount,
		ChargeID:   charge.ID,
		CreatedAt:  c.now(),
		Lines:      attempt.Lines,
	})
	if err != nil {
		span.RecordError(err)
		return model.Order{}, fmt.Errorf("failed to create order: %w", err)
	}

	span.SetAttributes(attribute.String("order.id", order.ID.String()))
	return order, nil
}

// clearCart removes only the quantities that were paid for, so items added
// while the checkout ran stay in the cart.
func (c *Checkout) clearCart(ctx context.Context, attempt model.CheckoutAttempt, orderID uuid.UUID) error {
	ctx, span := c.tracer.Start(ctx, "checkout.clear_cart")
	defer span.End()

	storeCtx, cancel := withTimeout(ctx, c.timeouts.Store)
	defer cancel()

	if err := c.checkouts.Complete(storeCtx, attempt.ID, orderID, attempt.CartItems); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (c *Checkout) markFailed(ctx context.Context, attemptID uuid.UUID, cause error) {
	storeCtx, cancel := withTimeout(context.WithoutCancel(ctx), c.timeouts.Store)
	defer cancel()
	if err := c.checkouts.MarkFailed(storeCtx, attemptID, cause.Error()); err != nil {
		c.logger.Warn("Checkout service: failed to mark attempt failed",
			"attempt_id", attemptID.String(),
			"error", err.Error())
	}
}

// chargeUnknown records a capture that may or may not have gone through and
// raises an alert. The next checkout of the user, or a replay, repeats the
// capture under the same idempotency key.
func (c *Checkout) chargeUnknown(ctx context.Context, attempt model.CheckoutAttempt, cause error) error {
	ctx = context.WithoutCancel(ctx)

	c.logger.Error("Checkout service: payment outcome unknown",
		"alert", "checkout_charge_unknown",
		"attempt_id", attempt.ID.String(),
		"user_id", attempt.UserID.String(),
		"amount", attempt.Total,
		"error", cause.Error())

	c.metrics.IncChargeUnknown()

	storeCtx, cancel := withTimeout(ctx, c.timeouts.Store)
	defer cancel()
	if err := c.checkouts.MarkChargeUnknown(storeCtx, attempt.ID, cause.Error()); err != nil {
		c.logger.Error("Checkout service: failed to mark attempt charge unknown",
			"alert", "checkout_charge_unknown",
			"attempt_id", attempt.ID.String(),
			"error", err.Error())
	}

	c.publish(ctx, model.Event{
		Type:   model.EventCheckoutChargeUnknown,
		UserID: attempt.UserID.String(),
		Metadata: map[string]any{
			"attempt_id": attempt.ID.String(),
			"amount":     attempt.Total,
			"reason":     cause.Error(),
		},
	})

	return model.NewErrChargeUnknown(attempt.ID, cause)
}

// inconsistent records a paid attempt that could not be completed and raises
// an alert. No refund is issued; the attempt is left for reconciliation.
func (c *Checkout) inconsistent(ctx context.Context, attempt model.CheckoutAttempt, charge model.Charge, cause error) error {
	c.logger.Error("Checkout service: payment captured but order not completed",
		"alert", "inconsistent_checkout",
		"attempt_id", attempt.ID.String(),
		"charge_id", charge.ID,
		"user_id", attempt.UserID.String(),
		"amount", charge.Amount,
		"error", cause.Error())

	c.metrics.IncInconsistent()

	storeCtx, cancel := withTimeout(ctx, c.timeouts.Store)
	defer cancel()
	if err := c.checkouts.MarkInconsistent(storeCtx, attempt.ID, charge.ID, charge.Amount, cause.Error()); err != nil {
		c.logger.Error("Checkout service: failed to mark attempt inconsistent",
			"alert", "inconsistent_checkout",
			"attempt_id", attempt.ID.String(),
			"error", err.Error())
	}

	c.publish(ctx, model.Event{
		Type:   model.EventCheckoutInconsistent,
		UserID: attempt.UserID.String(),
		Metadata: map[string]any{
			"attempt_id": attempt.ID.String(),
			"charge_id":  charge.ID,
			"amount":     charge.Amount,
			"reason":     cause.Error(),
		},
	})

	return model.NewErrInconsistentCheckout(attempt.ID, cause)
}

func (c *Checkout) publish(ctx context.Context, event model.Event) {
	if c.events == nil {
		return
	}
	pubCtx, cancel := withTimeout(context.WithoutCancel(ctx), c.timeouts.Store)
	defer cancel()
	if err := c.events.Publish(pubCtx, event); err != nil {
		c.logger.Warn("Checkout service: failed to publish event",
			"type", event.Type,
			"error", err.Error())
	}
}

// pendingGrace is how long a pending attempt may stay pending before it is
// considered stuck.
func (c *Checkout) pendingGrace() time.Duration {
	if c.timeouts.Payment > 0 {
		return c.timeouts.Payment
	}
	return DefaultTimeouts.Payment
}

func checkoutOutcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	switch model.KindOf(err) {
	case model.KindAuthenticationRequired:
		return OutcomeUnauthenticated
	case model.KindValidationFailed:
		return OutcomeInvalid
	case model.KindPaymentDeclined:
		return OutcomeDeclined
	case model.KindUpstreamFailure:
		return OutcomeUpstreamFailure
	case model.KindInconsistentCheckoutState:
		return OutcomeInconsistent
	default:
		return OutcomeError
	}
}
