package model

import (
	"context"
	"errors"
	"time"
)

// ErrCardDeclined is returned by a PaymentGateway when the charge was rejected.
var ErrCardDeclined = errors.New("card declined")

// ErrLockHeld is returned by a Locker when the key is already locked.
var ErrLockHeld = errors.New("lock is held")

// ErrInvalidPaymentSource is returned by a PaymentGateway when the payment
// token is malformed, unknown or already used.
var ErrInvalidPaymentSource = errors.New("invalid payment source")

// PaymentGateway captures payments.
type PaymentGateway interface {
	Capture(ctx context.Context, req CaptureRequest) (Charge, error)
}

// CaptureRequest describes a single payment capture.
type CaptureRequest struct {
	Amount         int64
	Currency       string
	Source         string
	IdempotencyKey string
	Description    string
}

// Charge is the gateway's record of a captured payment.
type Charge struct {
	ID     string
	Amount int64
}

// Mailer delivers email.
type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}

// Mail is an outgoing HTML email. An empty From uses the mailer default.
type Mail struct {
	From     string
	To       string
	Subject  string
	HTMLBody string
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// Event types.
const (
	EventUserSignedUp          = "user.signup"
	EventOrderCreated          = "order.created"
	EventCheckoutInconsistent  = "checkout.inconsistent"
	EventCheckoutChargeUnknown = "checkout.charge_unknown"
)

// Event is a domain event.
type Event struct {
	Type     string
	UserID   string
	Metadata map[string]any
}

// Locker provides mutual exclusion across processes.
type Locker interface {
	// Acquire returns ErrLockHeld when key is already locked.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// CheckoutMetrics records checkout outcomes.
type CheckoutMetrics interface {
	ObserveCheckout(outcome string, duration time.Duration)
	IncInconsistent()
	IncChargeUnknown()
}
