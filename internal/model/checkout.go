package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CheckoutStore persists checkout attempts used for idempotency and reconciliation.
type CheckoutStore interface {
	Create(ctx context.Context, attempt CheckoutAttempt) error
	GetByID(ctx context.Context, id uuid.UUID) (CheckoutAttempt, error)
	// FindOpen returns the user's newest attempt that is neither failed nor
	// completed, or ErrNotFound.
	FindOpen(ctx context.Context, userID uuid.UUID) (CheckoutAttempt, error)
	MarkCharged(ctx context.Context, id uuid.UUID, chargeID string, amount int64) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	// MarkChargeUnknown records a capture whose outcome the gateway did not report.
	MarkChargeUnknown(ctx context.Context, id uuid.UUID, reason string) error
	// MarkInconsistent records a captured charge whose order could not be completed.
	MarkInconsistent(ctx context.Context, id uuid.UUID, chargeID string, amount int64, reason string) error
	// Complete marks the attempt completed and takes the charged quantities
	// out of the cart in one transaction. Completing a completed attempt is a no-op.
	Complete(ctx context.Context, id uuid.UUID, orderID uuid.UUID, taken []CartTake) error
	// ListStuck returns attempts that may hold a captured payment without an
	// order: charged, inconsistent, charge_unknown, and pending ones created
	// before pendingBefore.
	ListStuck(ctx context.Context, pendingBefore time.Time) ([]CheckoutAttempt, error)
}

// CheckoutStatus is the lifecycle state of a checkout attempt.
type CheckoutStatus string

const (
	CheckoutPending       CheckoutStatus = "pending"
	CheckoutFailed        CheckoutStatus = "failed"
	CheckoutChargeUnknown CheckoutStatus = "charge_unknown"
	CheckoutCharged       CheckoutStatus = "charged"
	CheckoutInconsistent  CheckoutStatus = "inconsistent"
	CheckoutCompleted     CheckoutStatus = "completed"
)

// CheckoutAttempt records one run of the checkout pipeline. Its ID is the
// idempotency key sent to the payment gateway, and Source is kept so a retry
// repeats the exact same capture.
type CheckoutAttempt struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Status        CheckoutStatus
	Total         int64
	Currency      string
	Source        string
	ChargeID      string
	ChargedAmount int64
	CartItems     []CartTake
	Lines         []OrderLine
	OrderID       *uuid.UUID
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
