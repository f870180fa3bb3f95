package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/sickfits-server/internal/logger"
	"github.com/dtroode/sickfits-server/internal/model"
)

// Cart maintains a principal's cart. Each (owner, item) pair is one line
// whose quantity grows with every add.
type Cart struct {
	carts    model.CartStore
	items    model.ItemStore
	guard    *Guard
	logger   *logger.Logger
	timeouts Timeouts
}

func NewCart(carts model.CartStore, items model.ItemStore, guard *Guard, logger *logger.Logger, timeouts Timeouts) *Cart {
	return &Cart{
		carts:    carts,
		items:    items,
		guard:    guard,
		logger:   logger,
		timeouts: timeouts,
	}
}

func (c *Cart) AddToCart(ctx context.Context, p model.Principal, itemID uuid.UUID) (model.CartItem, error) {
	if err := c.guard.RequireLogin(p); err != nil {
		return model.CartItem{}, err
	}

	c.logger.Debug("Cart service: adding item",
		"user_id", p.ID.String(),
		"item_id", itemID.String())

	ctx, cancel := withTimeout(ctx, c.timeouts.Store)
	defer cancel()

	if _, err := c.items.GetByID(ctx, itemID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.CartItem{}, model.NewErrNotFound("item")
		}
		return model.CartItem{}, fmt.Errorf("failed to get item: %w", err)
	}

	ci, err := c.carts.UpsertIncrement(ctx, p.ID, itemID)
	if err != nil {
		c.logger.Error("Cart service: failed to add item",
			"user_id", p.ID.String(),
			"item_id", itemID.String(),
			"error", err.Error())
		return model.CartItem{}, fmt.Errorf("failed to add to cart: %w", err)
	}

	c.logger.Info("Cart service: item added",
		"user_id", p.ID.String(),
		"cart_item_id", ci.ID.String(),
		"quantity", ci.Quantity)

	return ci, nil
}

// RemoveFromCart deletes a cart line. Only its owner may remove it; no
// permission overrides ownership here.
func (c *Cart) RemoveFromCart(ctx context.Context, p model.Principal, cartItemID uuid.UUID) (model.CartItem, error) {
	if err := c.guard.RequireLogin(p); err != nil {
		return model.CartItem{}, err
	}

	ctx, cancel := withTimeout(ctx, c.timeouts.Store)
	defer cancel()

	ci, err := c.carts.GetByID(ctx, cartItemID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.CartItem{}, model.NewErrNotFound("cart item")
		}
		return model.CartItem{}, fmt.Errorf("failed to get cart item: %w", err)
	}

	if ci.OwnerID != p.ID {
		c.logger.Info("Cart service: refused to remove foreign cart item",
			"user_id", p.ID.String(),
			"cart_item_id", cartItemID.String())
		return model.CartItem{}, model.NewErrAuthorizationDenied(nil)
	}

	if err := c.carts.Delete(ctx, cartItemID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.CartItem{}, model.NewErrNotFound("cart item")
		}
		return model.CartItem{}, fmt.Errorf("failed to delete cart item: %w", err)
	}

	c.logger.Info("Cart service: item removed",
		"user_id", p.ID.String(),
		"cart_item_id", cartItemID.String())

	return ci, nil
}

// Lines returns the principal's cart with the current catalog items.
func (c *Cart) Lines(ctx context.Context, p model.Principal) ([]model.CartLine, error) {
	if err := c.guard.RequireLogin(p); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, c.timeouts.Store)
	defer cancel()

	lines, err := c.carts.ListLines(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart: %w", err)
	}
	return lines, nil
}
