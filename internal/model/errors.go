package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Store-level sentinels.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// ErrorKind classifies failures surfaced to callers.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindAuthenticationRequired
	KindAuthorizationDenied
	KindNotFound
	KindValidationFailed
	KindExpiredOrInvalidToken
	KindPaymentDeclined
	KindUpstreamFailure
	KindInconsistentCheckoutState
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthenticationRequired:
		return "AuthenticationRequired"
	case KindAuthorizationDenied:
		return "AuthorizationDenied"
	case KindNotFound:
		return "NotFound"
	case KindValidationFailed:
		return "ValidationFailed"
	case KindExpiredOrInvalidToken:
		return "ExpiredOrInvalidToken"
	case KindPaymentDeclined:
		return "PaymentDeclined"
	case KindUpstreamFailure:
		return "UpstreamFailure"
	case KindInconsistentCheckoutState:
		return "InconsistentCheckoutState"
	default:
		return "Unknown"
	}
}

// Error is a typed, user-facing failure. Message is safe to show to callers,
// Err carries internal detail for logs only.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

func NewErrAuthenticationRequired() *Error {
	return &Error{Kind: KindAuthenticationRequired, Message: "you must be logged in to do that"}
}

func NewErrAuthorizationDenied(required PermissionSet) *Error {
	msg := "you don't have permission to do that"
	if len(required) > 0 {
		msg = fmt.Sprintf("you don't have sufficient permissions: %s", required)
	}
	return &Error{Kind: KindAuthorizationDenied, Message: msg}
}

func NewErrNotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", what)}
}

func NewErrUserNotFound(email string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("no such user found for email %s", email)}
}

func NewErrValidation(msg string) *Error {
	return &Error{Kind: KindValidationFailed, Message: msg}
}

func NewErrExpiredOrInvalidToken() *Error {
	return &Error{Kind: KindExpiredOrInvalidToken, Message: "this token is either invalid or expired"}
}

func NewErrPaymentDeclined(err error) *Error {
	return &Error{Kind: KindPaymentDeclined, Message: "payment was declined", Err: err}
}

func NewErrUpstream(op string, err error) *Error {
	return &Error{Kind: KindUpstreamFailure, Message: "upstream service failure", Err: fmt.Errorf("%s: %w", op, err)}
}

func NewErrInconsistentCheckout(attemptID uuid.UUID, err error) *Error {
	return &Error{
		Kind:    KindInconsistentCheckoutState,
		Message: fmt.Sprintf("payment was captured but the order could not be completed, reference %s", attemptID),
		Err:     err,
	}
}

func NewErrInvalidPaymentSource(err error) *Error {
	return &Error{Kind: KindValidationFailed, Message: "the payment token is invalid or was already used", Err: err}
}

// NewErrChargeUnknown reports a capture whose outcome is unknown. Retrying the
// checkout repeats the capture under the same idempotency key.
func NewErrChargeUnknown(attemptID uuid.UUID, err error) *Error {
	return &Error{
		Kind:    KindUpstreamFailure,
		Message: fmt.Sprintf("the payment outcome is unknown, retry to finish checkout without a second charge, reference %s", attemptID),
		Err:     err,
	}
}
