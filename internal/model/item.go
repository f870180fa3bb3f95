package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ItemStore defines persistence operations for catalog items.
type ItemStore interface {
	Create(ctx context.Context, item Item) (Item, error)
	GetByID(ctx context.Context, id uuid.UUID) (Item, error)
	// List and Count match items whose title or description contains query,
	// ignoring case. An empty query matches every item.
	List(ctx context.Context, query string, limit, offset int) ([]Item, error)
	Count(ctx context.Context, query string) (int, error)
	Update(ctx context.Context, item Item) (Item, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Item is a catalog item. Price is in minor currency units.
type Item struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Title       string
	Description string
	Price       int64
	Image       string
	LargeImage  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateItemParams contains parameters to create an item.
type CreateItemParams struct {
	Title       string
	Description string
	Price       int64
	Image       string
	LargeImage  string
}

// ItemPatch holds the fields of an item update; nil fields are left untouched.
type ItemPatch struct {
	Title       *string
	Description *string
	Price       *int64
	Image       *string
	LargeImage  *string
}

// ItemPage is one page of the catalog.
type ItemPage struct {
	Items   []Item
	Total   int
	Page    int
	PerPage int
}
