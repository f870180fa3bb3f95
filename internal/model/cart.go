package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CartStore defines persistence operations for cart items.
type CartStore interface {
	// UpsertIncrement creates the (owner, item) cart row with quantity 1 or
	// increments the existing one, in a single statement.
	UpsertIncrement(ctx context.Context, ownerID, itemID uuid.UUID) (CartItem, error)
	GetByID(ctx context.Context, id uuid.UUID) (CartItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ListLines returns the owner's cart joined with the current catalog items.
	ListLines(ctx context.Context, ownerID uuid.UUID) ([]CartLine, error)
}

// CartItem pairs an owner with a catalog item. ItemID is a weak reference.
type CartItem struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	ItemID    uuid.UUID
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartLine is a cart item with the referenced catalog item, nil when the item was deleted.
type CartLine struct {
	CartItem
	Item *Item
}

// CartTake is the quantity of one cart row a checkout paid for.
type CartTake struct {
	CartItemID uuid.UUID `json:"cart_item_id"`
	Quantity   int       `json:"quantity"`
}
