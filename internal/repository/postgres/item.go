package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/sickfits-server/internal/model"
)

var _ model.ItemStore = (*ItemRepository)(nil)

const itemColumns = `id, owner_id, title, description, price, image, large_image, created_at, updated_at`

type ItemRepository struct {
	db *Connection
}

func NewItemRepository(db *Connection) *ItemRepository {
	return &ItemRepository{
		db: db,
	}
}

func scanItem(row rowScanner) (model.Item, error) {
	var item model.Item
	err := row.Scan(
		&item.ID, &item.OwnerID, &item.Title, &item.Description, &item.Price,
		&item.Image, &item.LargeImage, &item.CreatedAt, &item.UpdatedAt,
	)
	return item, err
}

func (r *ItemRepository) Create(ctx context.Context, item model.Item) (model.Item, error) {
	query := `INSERT INTO items (id, owner_id, title, description, price, image, large_image, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING ` + itemColumns

	saved, err := scanItem(r.db.QueryRow(ctx, query,
		item.ID, item.OwnerID, item.Title, item.Description, item.Price,
		item.Image, item.LargeImage, item.CreatedAt, item.UpdatedAt,
	))
	if err != nil {
		return model.Item{}, mapWriteError(err, "create item")
	}
	return saved, nil
}

func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Item{}, model.ErrNotFound
		}
		return model.Item{}, fmt.Errorf("failed to get item by id: %w", err)
	}
	return item, nil
}

// itemSearch filters items by a contains-pattern in $1; an empty pattern
// disables the filter.
const itemSearch = `($1 = '' OR title ILIKE $1 OR description ILIKE $1)`

// containsPattern turns a search term into an ILIKE pattern matching it
// literally anywhere in the text.
func containsPattern(q string) string {
	if q == "" {
		return ""
	}
	return "%" + likeEscaper.Replace(q) + "%"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *ItemRepository) List(ctx context.Context, q string, limit, offset int) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items
			  WHERE ` + itemSearch + `
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, containsPattern(q), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := make([]model.Item, 0, limit)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

func (r *ItemRepository) Count(ctx context.Context, q string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM items WHERE ` + itemSearch
	if err := r.db.QueryRow(ctx, query, containsPattern(q)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

func (r *ItemRepository) Update(ctx context.Context, item model.Item) (model.Item, error) {
	query := `UPDATE items
			  SET title = $2, description = $3, price = $4, image = $5, large_image = $6, updated_at = NOW()
			  WHERE id = $1
			  RETURNING ` + itemColumns

	saved, err := scanItem(r.db.QueryRow(ctx, query,
		item.ID, item.Title, item.Description, item.Price, item.Image, item.LargeImage,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Item{}, model.ErrNotFound
		}
		return model.Item{}, fmt.Errorf("failed to update item: %w", err)
	}
	return saved, nil
}

func (r *ItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
