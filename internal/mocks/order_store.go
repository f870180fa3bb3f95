package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/sickfits-server/internal/model"
)

// OrderStore is a mock of model.OrderStore.
type OrderStore struct {
	mock.Mock
}

func NewOrderStore(t testingT) *OrderStore {
	m := &OrderStore{}
	register(t, &m.Mock)
	return m
}

func (m *OrderStore) Create(ctx context.Context, order model.Order) (model.Order, error) {
	args := m.Called(ctx, order)
	if fn, ok := args.Get(0).(func(context.Context, model.Order) (model.Order, error)); ok {
		return fn(ctx, order)
	}
	return args.Get(0).(model.Order), args.Error(1)
}

func (m *OrderStore) GetByID(ctx context.Context, id uuid.UUID) (model.Order, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Order), args.Error(1)
}

func (m *OrderStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Order, error) {
	args := m.Called(ctx, ownerID)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}
