package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OrderStore defines persistence operations for orders.
type OrderStore interface {
	// Create persists the order. An order with the same CheckoutID is returned as is.
	Create(ctx context.Context, order Order) (Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (Order, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Order, error)
}

// Order is an immutable record of a paid checkout.
type Order struct {
	ID         uuid.UUID
	OwnerID    uuid.UUID
	CheckoutID uuid.UUID
	Total      int64
	ChargeID   string
	CreatedAt  time.Time
	Lines      []OrderLine
}

// OrderLine is a point-in-time copy of a purchased item.
type OrderLine struct {
	ItemID      uuid.UUID `json:"item_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Image       string    `json:"image"`
	LargeImage  string    `json:"large_image"`
	Quantity    int       `json:"quantity"`
}

// Subtotal returns price times quantity.
func (l OrderLine) Subtotal() int64 {
	return l.Price * int64(l.Quantity)
}

// SnapshotLine copies the item's current fields for an order.
func SnapshotLine(item Item, quantity int) OrderLine {
	return OrderLine{
		ItemID:      item.ID,
		Title:       item.Title,
		Description: item.Description,
		Price:       item.Price,
		Image:       item.Image,
		LargeImage:  item.LargeImage,
		Quantity:    quantity,
	}
}
