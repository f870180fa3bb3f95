package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/sickfits-server/internal/logger"
	"github.com/dtroode/sickfits-server/internal/model"
)

// Reconciler lists and repairs checkout attempts that may hold a payment
// without an order.
type Reconciler struct {
	checkout *Checkout
	logger   *logger.Logger
}

func NewReconciler(checkout *Checkout, logger *logger.Logger) *Reconciler {
	return &Reconciler{
		checkout: checkout,
		logger:   logger,
	}
}

// ListStuck returns charged, inconsistent and charge_unknown attempts, plus
// pending ones older than the payment timeout.
func (r *Reconciler) ListStuck(ctx context.Context) ([]model.CheckoutAttempt, error) {
	c := r.checkout
	ctx, cancel := withTimeout(ctx, c.timeouts.Store)
	defer cancel()

	attempts, err := c.checkouts.ListStuck(ctx, c.now().Add(-c.pendingGrace()))
	if err != nil {
		return nil, fmt.Errorf("failed to list stuck checkouts: %w", err)
	}
	return attempts, nil
}

// Replay drives a stuck attempt to completion from its stored snapshot. An
// attempt with an unknown charge is captured again under its idempotency key.
// Replaying a completed attempt returns its order.
func (r *Reconciler) Replay(ctx context.Context, attemptID uuid.UUID) (model.Order, error) {
	r.logger.Debug("Reconciler: replaying checkout",
		"attempt_id", attemptID.String())

	c := r.checkout
	ctx = context.WithoutCancel(ctx)

	attempt, err := r.attempt(ctx, attemptID)
	if err != nil {
		return model.Order{}, err
	}

	switch attempt.Status {
	case model.CheckoutCompleted:
		return r.completedOrder(ctx, attempt)
	case model.CheckoutFailed:
		return model.Order{}, model.NewErrValidation("checkout attempt failed and was never charged")
	}

	release, err := c.lock(ctx, attempt.UserID)
	if err != nil {
		return model.Order{}, err
	}
	defer release()

	// The user's own checkout may have finished the attempt before the lock was taken.
	attempt, err = r.attempt(ctx, attemptID)
	if err != nil {
		return model.Order{}, err
	}
	if attempt.Status == model.CheckoutCompleted {
		return r.completedOrder(ctx, attempt)
	}

	order, err := c.resume(ctx, attempt)
	if err != nil {
		r.logger.Error("Reconciler: replay failed",
			"alert", "inconsistent_checkout",
			"attempt_id", attempt.ID.String(),
			"status", string(attempt.Status),
			"error", err.Error())
		return model.Order{}, err
	}

	r.logger.Info("Reconciler: checkout replayed",
		"attempt_id", attempt.ID.String(),
		"order_id", order.ID.String())

	return order, nil
}

func (r *Reconciler) attempt(ctx context.Context, id uuid.UUID) (model.CheckoutAttempt, error) {
	storeCtx, cancel := withTimeout(ctx, r.checkout.timeouts.Store)
	defer cancel()

	attempt, err := r.checkout.checkouts.GetByID(storeCtx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.CheckoutAttempt{}, model.NewErrNotFound("checkout attempt")
		}
		return model.CheckoutAttempt{}, fmt.Errorf("failed to get checkout attempt: %w", err)
	}
	return attempt, nil
}

func (r *Reconciler) completedOrder(ctx context.Context, attempt model.CheckoutAttempt) (model.Order, error) {
	if attempt.OrderID == nil {
		return model.Order{}, fmt.Errorf("completed checkout attempt %s has no order", attempt.ID)
	}

	storeCtx, cancel := withTimeout(ctx, r.checkout.timeouts.Store)
	defer cancel()

	order, err := r.checkout.orders.GetByID(storeCtx, *attempt.OrderID)
	if err != nil {
		return model.Order{}, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}
