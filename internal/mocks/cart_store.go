package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/sickfits-server/internal/model"
)

// CartStore is a mock of model.CartStore.
type CartStore struct {
	mock.Mock
}

func NewCartStore(t testingT) *CartStore {
	m := &CartStore{}
	register(t, &m.Mock)
	return m
}

func (m *CartStore) UpsertIncrement(ctx context.Context, ownerID, itemID uuid.UUID) (model.CartItem, error) {
	args := m.Called(ctx, ownerID, itemID)
	if fn, ok := args.Get(0).(func(context.Context, uuid.UUID, uuid.UUID) (model.CartItem, error)); ok {
		return fn(ctx, ownerID, itemID)
	}
	return args.Get(0).(model.CartItem), args.Error(1)
}

func (m *CartStore) GetByID(ctx context.Context, id uuid.UUID) (model.CartItem, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.CartItem), args.Error(1)
}

func (m *CartStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *CartStore) ListLines(ctx context.Context, ownerID uuid.UUID) ([]model.CartLine, error) {
	args := m.Called(ctx, ownerID)
	lines, _ := args.Get(0).([]model.CartLine)
	return lines, args.Error(1)
}
