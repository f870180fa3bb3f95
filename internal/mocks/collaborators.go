package mocks

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/sickfits-server/internal/model"
)

// TokenManager is a mock of model.TokenManager.
type TokenManager struct {
	mock.Mock
}

func NewTokenManager(t testingT) *TokenManager {
	m := &TokenManager{}
	register(t, &m.Mock)
	return m
}

func (m *TokenManager) GenerateSessionToken(userID uuid.UUID) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

func (m *TokenManager) ParseSessionToken(token string) (uuid.UUID, error) {
	args := m.Called(token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *TokenManager) MaxAge() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

// PaymentGateway is a mock of model.PaymentGateway.
type PaymentGateway struct {
	mock.Mock
}

func NewPaymentGateway(t testingT) *PaymentGateway {
	m := &PaymentGateway{}
	register(t, &m.Mock)
	return m
}

func (m *PaymentGateway) Capture(ctx context.Context, req model.CaptureRequest) (model.Charge, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.Charge), args.Error(1)
}

// Mailer is a mock of model.Mailer.
type Mailer struct {
	mock.Mock
}

func NewMailer(t testingT) *Mailer {
	m := &Mailer{}
	register(t, &m.Mock)
	return m
}

func (m *Mailer) Send(ctx context.Context, mail model.Mail) error {
	args := m.Called(ctx, mail)
	return args.Error(0)
}

// EventPublisher is a mock of model.EventPublisher.
type EventPublisher struct {
	mock.Mock
}

func NewEventPublisher(t testingT) *EventPublisher {
	m := &EventPublisher{}
	register(t, &m.Mock)
	return m
}

func (m *EventPublisher) Publish(ctx context.Context, event model.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// Locker is a mock of model.Locker.
type Locker struct {
	mock.Mock
}

func NewLocker(t testingT) *Locker {
	m := &Locker{}
	register(t, &m.Mock)
	return m
}

func (m *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	args := m.Called(ctx, key, ttl)
	release, _ := args.Get(0).(func(context.Context) error)
	return release, args.Error(1)
}

// CheckoutMetrics is a mock of model.CheckoutMetrics.
type CheckoutMetrics struct {
	mock.Mock
}

func NewCheckoutMetrics(t testingT) *CheckoutMetrics {
	m := &CheckoutMetrics{}
	register(t, &m.Mock)
	return m
}

func (m *CheckoutMetrics) ObserveCheckout(outcome string, duration time.Duration) {
	m.Called(outcome, duration)
}

func (m *CheckoutMetrics) IncInconsistent() {
	m.Called()
}

func (m *CheckoutMetrics) IncChargeUnknown() {
	m.Called()
}

// Storage is a mock of model.Storage.
type Storage struct {
	mock.Mock
}

func NewStorage(t testingT) *Storage {
	m := &Storage{}
	register(t, &m.Mock)
	return m
}

func (m *Storage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, key, reader, size, contentType)
	return args.Error(0)
}

func (m *Storage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *Storage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *Storage) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

var (
	_ model.UserStore       = (*UserStore)(nil)
	_ model.ItemStore       = (*ItemStore)(nil)
	_ model.CartStore       = (*CartStore)(nil)
	_ model.OrderStore      = (*OrderStore)(nil)
	_ model.CheckoutStore   = (*CheckoutStore)(nil)
	_ model.TokenManager    = (*TokenManager)(nil)
	_ model.PaymentGateway  = (*PaymentGateway)(nil)
	_ model.Mailer          = (*Mailer)(nil)
	_ model.EventPublisher  = (*EventPublisher)(nil)
	_ model.Locker          = (*Locker)(nil)
	_ model.CheckoutMetrics = (*CheckoutMetrics)(nil)
	_ model.Storage         = (*Storage)(nil)
)
