package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/sickfits-server/internal/model"
)

var _ model.CartStore = (*CartRepository)(nil)

const cartColumns = `id, owner_id, item_id, quantity, created_at, updated_at`

type CartRepository struct {
	db *Connection
}

func NewCartRepository(db *Connection) *CartRepository {
	return &CartRepository{
		db: db,
	}
}

func scanCartItem(row rowScanner) (model.CartItem, error) {
	var ci model.CartItem
	err := row.Scan(&ci.ID, &ci.OwnerID, &ci.ItemID, &ci.Quantity, &ci.CreatedAt, &ci.UpdatedAt)
	return ci, err
}

// UpsertIncrement relies on the (owner_id, item_id) unique constraint so that
// concurrent adds of the same item never create two rows or lose an increment.
func (r *CartRepository) UpsertIncrement(ctx context.Context, ownerID, itemID uuid.UUID) (model.CartItem, error) {
	query := `INSERT INTO cart_items (id, owner_id, item_id, quantity)
			  VALUES ($1, $2, $3, 1)
			  ON CONFLICT (owner_id, item_id)
			  DO UPDATE SET quantity = cart_items.quantity + 1, updated_at = NOW()
			  RETURNING ` + cartColumns

	ci, err := scanCartItem(r.db.QueryRow(ctx, query, uuid.New(), ownerID, itemID))
	if err != nil {
		return model.CartItem{}, fmt.Errorf("failed to upsert cart item: %w", err)
	}
	return ci, nil
}

func (r *CartRepository) GetByID(ctx context.Context, id uuid.UUID) (model.CartItem, error) {
	query := `SELECT ` + cartColumns + ` FROM cart_items WHERE id = $1`

	ci, err := scanCartItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.CartItem{}, model.ErrNotFound
		}
		return model.CartItem{}, fmt.Errorf("failed to get cart item by id: %w", err)
	}
	return ci, nil
}

func (r *CartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *CartRepository) ListLines(ctx context.Context, ownerID uuid.UUID) ([]model.CartLine, error) {
	query := `SELECT c.id, c.owner_id, c.item_id, c.quantity, c.created_at, c.updated_at,
			         i.id, i.owner_id, i.title, i.description, i.price, i.image, i.large_image, i.created_at, i.updated_at
			  FROM cart_items c
			  LEFT JOIN items i ON i.id = c.item_id
			  WHERE c.owner_id = $1
			  ORDER BY c.created_at, c.id`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart: %w", err)
	}
	defer rows.Close()

	lines := make([]model.CartLine, 0)
	for rows.Next() {
		var (
			line        model.CartLine
			itemID      *uuid.UUID
			itemOwner   *uuid.UUID
			title       *string
			description *string
			price       *int64
			image       *string
			largeImage  *string
			createdAt   *time.Time
			updatedAt   *time.Time
		)
		err := rows.Scan(
			&line.ID, &line.OwnerID, &line.ItemID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt,
			&itemID, &itemOwner, &title, &description, &price, &image, &largeImage, &createdAt, &updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		if itemID != nil {
			line.Item = &model.Item{
				ID:          *itemID,
				OwnerID:     *itemOwner,
				Title:       *title,
				Description: *description,
				Price:       *price,
				Image:       *image,
				LargeImage:  *largeImage,
				CreatedAt:   *createdAt,
				UpdatedAt:   *updatedAt,
			}
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cart: %w", err)
	}
	return lines, nil
}
