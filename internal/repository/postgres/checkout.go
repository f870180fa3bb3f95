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

var _ model.CheckoutStore = (*CheckoutRepository)(nil)

const checkoutColumns = `id, user_id, status, total, currency, payment_source, charge_id, charged_amount,
	cart_items, lines, order_id, failure_reason, created_at, updated_at`

// releaseCartQuery takes the paid quantities out of the cart. Rows that were
// topped up after the snapshot keep the difference.
const releaseCartQuery = `WITH taken AS (
		SELECT * FROM unnest($1::uuid[], $2::int[]) AS t (id, quantity)
	), removed AS (
		DELETE FROM cart_items c USING taken t
		WHERE c.id = t.id AND c.quantity <= t.quantity
		RETURNING c.id
	)
	UPDATE cart_items c
	SET quantity = c.quantity - t.quantity, updated_at = NOW()
	FROM taken t
	WHERE c.id = t.id AND c.quantity > t.quantity`

type CheckoutRepository struct {
	db *Connection
}

func NewCheckoutRepository(db *Connection) *CheckoutRepository {
	return &CheckoutRepository{
		db: db,
	}
}

func scanAttempt(row rowScanner) (model.CheckoutAttempt, error) {
	var a model.CheckoutAttempt
	err := row.Scan(
		&a.ID, &a.UserID, &a.Status, &a.Total, &a.Currency, &a.Source, &a.ChargeID, &a.ChargedAmount,
		&a.CartItems, &a.Lines, &a.OrderID, &a.FailureReason, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func (r *CheckoutRepository) Create(ctx context.Context, attempt model.CheckoutAttempt) error {
	query := `INSERT INTO checkout_attempts
			  (id, user_id, status, total, currency, payment_source, cart_items, lines, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		attempt.ID, attempt.UserID, attempt.Status, attempt.Total, attempt.Currency,
		attempt.Source, attempt.CartItems, attempt.Lines, attempt.CreatedAt, attempt.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err, "create checkout attempt")
	}
	return nil
}

func (r *CheckoutRepository) GetByID(ctx context.Context, id uuid.UUID) (model.CheckoutAttempt, error) {
	query := `SELECT ` + checkoutColumns + ` FROM checkout_attempts WHERE id = $1`

	a, err := scanAttempt(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.CheckoutAttempt{}, model.ErrNotFound
		}
		return model.CheckoutAttempt{}, fmt.Errorf("failed to get checkout attempt by id: %w", err)
	}
	return a, nil
}

func (r *CheckoutRepository) FindOpen(ctx context.Context, userID uuid.UUID) (model.CheckoutAttempt, error) {
	query := `SELECT ` + checkoutColumns + ` FROM checkout_attempts
			  WHERE user_id = $1 AND status IN ($2, $3, $4, $5)
			  ORDER BY created_at DESC
			  LIMIT 1`

	a, err := scanAttempt(r.db.QueryRow(ctx, query, userID,
		model.CheckoutPending, model.CheckoutChargeUnknown, model.CheckoutCharged, model.CheckoutInconsistent))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.CheckoutAttempt{}, model.ErrNotFound
		}
		return model.CheckoutAttempt{}, fmt.Errorf("failed to find open checkout attempt: %w", err)
	}
	return a, nil
}

func (r *CheckoutRepository) MarkCharged(ctx context.Context, id uuid.UUID, chargeID string, amount int64) error {
	query := `UPDATE checkout_attempts
			  SET status = $2, charge_id = $3, charged_amount = $4, updated_at = NOW()
			  WHERE id = $1`
	return r.update(ctx, "mark checkout charged", query, id, model.CheckoutCharged, chargeID, amount)
}

func (r *CheckoutRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	query := `UPDATE checkout_attempts
			  SET status = $2, failure_reason = $3, updated_at = NOW()
			  WHERE id = $1`
	return r.update(ctx, "mark checkout failed", query, id, model.CheckoutFailed, reason)
}

func (r *CheckoutRepository) MarkChargeUnknown(ctx context.Context, id uuid.UUID, reason string) error {
	query := `UPDATE checkout_attempts
			  SET status = $2, failure_reason = $3, updated_at = NOW()
			  WHERE id = $1`
	return r.update(ctx, "mark checkout charge unknown", query, id, model.CheckoutChargeUnknown, reason)
}

func (r *CheckoutRepository) MarkInconsistent(ctx context.Context, id uuid.UUID, chargeID string, amount int64, reason string) error {
	query := `UPDATE checkout_attempts
			  SET status = $2, charge_id = $3, charged_amount = $4, failure_reason = $5, updated_at = NOW()
			  WHERE id = $1`
	return r.update(ctx, "mark checkout inconsistent", query, id, model.CheckoutInconsistent, chargeID, amount, reason)
}

func (r *CheckoutRepository) Complete(ctx context.Context, id uuid.UUID, orderID uuid.UUID, taken []model.CartTake) error {
	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		query := `UPDATE checkout_attempts
				  SET status = $2, order_id = $3, failure_reason = '', updated_at = NOW()
				  WHERE id = $1 AND status <> $2`
		tag, err := tx.Exec(ctx, query, id, model.CheckoutCompleted, orderID)
		if err != nil {
			return fmt.Errorf("failed to mark checkout completed: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM checkout_attempts WHERE id = $1)`, id).Scan(&exists)
			if err != nil {
				return fmt.Errorf("failed to check checkout attempt: %w", err)
			}
			if !exists {
				return model.ErrNotFound
			}
			return nil
		}

		if len(taken) == 0 {
			return nil
		}
		ids := make([]uuid.UUID, len(taken))
		quantities := make([]int32, len(taken))
		for i, t := range taken {
			ids[i] = t.CartItemID
			quantities[i] = int32(t.Quantity)
		}
		if _, err := tx.Exec(ctx, releaseCartQuery, ids, quantities); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil
	})
}

func (r *CheckoutRepository) ListStuck(ctx context.Context, pendingBefore time.Time) ([]model.CheckoutAttempt, error) {
	query := `SELECT ` + checkoutColumns + ` FROM checkout_attempts
			  WHERE status IN ($1, $2, $3) OR (status = $4 AND created_at < $5)
			  ORDER BY created_at`

	rows, err := r.db.Query(ctx, query,
		model.CheckoutCharged, model.CheckoutInconsistent, model.CheckoutChargeUnknown,
		model.CheckoutPending, pendingBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to list stuck checkouts: %w", err)
	}
	defer rows.Close()

	attempts := make([]model.CheckoutAttempt, 0)
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checkout attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate checkout attempts: %w", err)
	}
	return attempts, nil
}

func (r *CheckoutRepository) update(ctx context.Context, op, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
