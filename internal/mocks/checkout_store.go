package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/sickfits-server/internal/model"
)

// CheckoutStore is a mock of model.CheckoutStore.
type CheckoutStore struct {
	mock.Mock
}

func NewCheckoutStore(t testingT) *CheckoutStore {
	m := &CheckoutStore{}
	register(t, &m.Mock)
	return m
}

func (m *CheckoutStore) Create(ctx context.Context, attempt model.CheckoutAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *CheckoutStore) GetByID(ctx context.Context, id uuid.UUID) (model.CheckoutAttempt, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.CheckoutAttempt), args.Error(1)
}

func (m *CheckoutStore) FindOpen(ctx context.Context, userID uuid.UUID) (model.CheckoutAttempt, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.CheckoutAttempt), args.Error(1)
}

func (m *CheckoutStore) MarkCharged(ctx context.Context, id uuid.UUID, chargeID string, amount int64) error {
	args := m.Called(ctx, id, chargeID, amount)
	return args.Error(0)
}

func (m *CheckoutStore) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *CheckoutStore) MarkChargeUnknown(ctx context.Context, id uuid.UUID, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *CheckoutStore) MarkInconsistent(ctx context.Context, id uuid.UUID, chargeID string, amount int64, reason string) error {
	args := m.Called(ctx, id, chargeID, amount, reason)
	return args.Error(0)
}

func (m *CheckoutStore) Complete(ctx context.Context, id uuid.UUID, orderID uuid.UUID, taken []model.CartTake) error {
	args := m.Called(ctx, id, orderID, taken)
	return args.Error(0)
}

func (m *CheckoutStore) ListStuck(ctx context.Context, pendingBefore time.Time) ([]model.CheckoutAttempt, error) {
	args := m.Called(ctx, pendingBefore)
	attempts, _ := args.Get(0).([]model.CheckoutAttempt)
	return attempts, args.Error(1)
}
