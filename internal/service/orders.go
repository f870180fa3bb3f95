package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/sickfits-server/internal/logger"
	"github.com/dtroode/sickfits-server/internal/model"
)

var orderViewers = model.NewPermissionSet(model.PermissionAdmin)

// Orders reads placed orders.
type Orders struct {
	orders   model.OrderStore
	guard    *Guard
	logger   *logger.Logger
	timeouts Timeouts
}

func NewOrders(orders model.OrderStore, guard *Guard, logger *logger.Logger, timeouts Timeouts) *Orders {
	return &Orders{
		orders:   orders,
		guard:    guard,
		logger:   logger,
		timeouts: timeouts,
	}
}

// Order returns one order to its owner or an ADMIN.
func (o *Orders) Order(ctx context.Context, p model.Principal, id uuid.UUID) (model.Order, error) {
	if err := o.guard.RequireLogin(p); err != nil {
		return model.Order{}, err
	}

	ctx, cancel := withTimeout(ctx, o.timeouts.Store)
	defer cancel()

	order, err := o.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Order{}, model.NewErrNotFound("order")
		}
		return model.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	if err := o.guard.Authorize(p, orderViewers, &order.OwnerID).Err(); err != nil {
		return model.Order{}, err
	}
	return order, nil
}

// Orders lists the principal's orders, newest first.
func (o *Orders) Orders(ctx context.Context, p model.Principal) ([]model.Order, error) {
	if err := o.guard.RequireLogin(p); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, o.timeouts.Store)
	defer cancel()

	orders, err := o.orders.ListByOwner(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}
