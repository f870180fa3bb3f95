package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/sickfits-server/internal/model"
)

var _ model.OrderStore = (*OrderRepository)(nil)

const orderColumns = `id, owner_id, checkout_id, total, charge_id, created_at`

type OrderRepository struct {
	db *Connection
}

func NewOrderRepository(db *Connection) *OrderRepository {
	return &OrderRepository{
		db: db,
	}
}

func scanOrder(row rowScanner) (model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.OwnerID, &o.CheckoutID, &o.Total, &o.ChargeID, &o.CreatedAt)
	return o, err
}

// Create inserts the order and its lines in one transaction. When an order for
// the same checkout already exists it is returned unchanged.
func (r *OrderRepository) Create(ctx context.Context, order model.Order) (model.Order, error) {
	var saved model.Order
	err := pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		query := `INSERT INTO orders (id, owner_id, checkout_id, total, charge_id, created_at)
				  VALUES ($1, $2, $3, $4, $5, $6)
				  ON CONFLICT (checkout_id) DO NOTHING
				  RETURNING ` + orderColumns

		var err error
		saved, err = scanOrder(tx.QueryRow(ctx, query,
			order.ID, order.OwnerID, order.CheckoutID, order.Total, order.ChargeID, order.CreatedAt,
		))
		if errors.Is(err, pgx.ErrNoRows) {
			saved, err = scanOrder(tx.QueryRow(ctx,
				`SELECT `+orderColumns+` FROM orders WHERE checkout_id = $1`, order.CheckoutID))
			if err != nil {
				return fmt.Errorf("failed to get order by checkout id: %w", err)
			}
			saved.Lines, err = loadOrderLines(ctx, tx, saved.ID)
			return err
		}
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		rows := make([][]any, 0, len(order.Lines))
		for i, l := range order.Lines {
			rows = append(rows, []any{
				saved.ID, i, l.ItemID, l.Title, l.Description, l.Price, l.Image, l.LargeImage, l.Quantity,
			})
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"order_items"},
			[]string{"order_id", "position", "item_id", "title", "description", "price", "image", "large_image", "quantity"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("failed to insert order lines: %w", err)
		}
		saved.Lines = order.Lines
		return nil
	})
	if err != nil {
		return model.Order{}, fmt.Errorf("failed to create order: %w", err)
	}

	return saved, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Order{}, model.ErrNotFound
		}
		return model.Order{}, fmt.Errorf("failed to get order by id: %w", err)
	}

	order.Lines, err = loadOrderLines(ctx, r.db.Pool, order.ID)
	if err != nil {
		return model.Order{}, err
	}
	return order, nil
}

func (r *OrderRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
			  WHERE owner_id = $1
			  ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := make([]model.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	for i := range orders {
		orders[i].Lines, err = loadOrderLines(ctx, r.db.Pool, orders[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return orders, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadOrderLines(ctx context.Context, q querier, orderID uuid.UUID) ([]model.OrderLine, error) {
	query := `SELECT item_id, title, description, price, image, large_image, quantity
			  FROM order_items WHERE order_id = $1 ORDER BY position`

	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order lines: %w", err)
	}
	defer rows.Close()

	lines := make([]model.OrderLine, 0)
	for rows.Next() {
		var l model.OrderLine
		if err := rows.Scan(&l.ItemID, &l.Title, &l.Description, &l.Price, &l.Image, &l.LargeImage, &l.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order lines: %w", err)
	}
	return lines, nil
}
