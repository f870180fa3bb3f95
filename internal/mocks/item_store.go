package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/sickfits-server/internal/model"
)

// ItemStore is a mock of model.ItemStore.
type ItemStore struct {
	mock.Mock
}

func NewItemStore(t testingT) *ItemStore {
	m := &ItemStore{}
	register(t, &m.Mock)
	return m
}

func (m *ItemStore) Create(ctx context.Context, item model.Item) (model.Item, error) {
	args := m.Called(ctx, item)
	if fn, ok := args.Get(0).(func(context.Context, model.Item) (model.Item, error)); ok {
		return fn(ctx, item)
	}
	return args.Get(0).(model.Item), args.Error(1)
}

func (m *ItemStore) GetByID(ctx context.Context, id uuid.UUID) (model.Item, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Item), args.Error(1)
}

func (m *ItemStore) List(ctx context.Context, query string, limit, offset int) ([]model.Item, error) {
	args := m.Called(ctx, query, limit, offset)
	items, _ := args.Get(0).([]model.Item)
	return items, args.Error(1)
}

func (m *ItemStore) Count(ctx context.Context, query string) (int, error) {
	args := m.Called(ctx, query)
	return args.Int(0), args.Error(1)
}

func (m *ItemStore) Update(ctx context.Context, item model.Item) (model.Item, error) {
	args := m.Called(ctx, item)
	if fn, ok := args.Get(0).(func(context.Context, model.Item) (model.Item, error)); ok {
		return fn(ctx, item)
	}
	return args.Get(0).(model.Item), args.Error(1)
}

func (m *ItemStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
