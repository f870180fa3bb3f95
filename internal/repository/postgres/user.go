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

var _ model.UserStore = (*UserRepository)(nil)

const userColumns = `id, email, name, password_hash, permissions, reset_token, reset_token_expires_at, created_at, updated_at`

type UserRepository struct {
	db *Connection
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		user  model.User
		perms []string
	)
	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash, &perms,
		&user.ResetToken, &user.ResetTokenExpiresAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return model.User{}, err
	}

	user.Permissions, err = model.ParsePermissionSet(perms)
	if err != nil {
		return model.User{}, fmt.Errorf("user %s has invalid permissions: %w", user.ID, err)
	}
	return user, nil
}

func (r *UserRepository) getOne(ctx context.Context, op, query string, args ...any) (model.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to %s: %w", op, err)
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, "get user by email", query, email)
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, "get user by id", query, id)
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	query := `INSERT INTO users (id, email, name, password_hash, permissions, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING ` + userColumns

	saved, err := scanUser(r.db.QueryRow(ctx, query,
		user.ID, user.Email, user.Name, user.PasswordHash, user.Permissions.Strings(),
		user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		return model.User{}, mapWriteError(err, "create user")
	}

	return saved, nil
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

func (r *UserRepository) UpdatePermissions(ctx context.Context, id uuid.UUID, permissions model.PermissionSet) (model.User, error) {
	query := `UPDATE users SET permissions = $2, updated_at = NOW()
			  WHERE id = $1
			  RETURNING ` + userColumns
	return r.getOne(ctx, "update permissions", query, id, permissions.Strings())
}

func (r *UserRepository) SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	query := `UPDATE users SET reset_token = $2, reset_token_expires_at = $3, updated_at = NOW()
			  WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, token, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// RedeemResetToken checks and consumes the token in the same statement, so
// concurrent redemptions of one token cannot both succeed.
func (r *UserRepository) RedeemResetToken(ctx context.Context, token string, now time.Time, passwordHash []byte) (model.User, error) {
	query := `UPDATE users
			  SET password_hash = $3, reset_token = NULL, reset_token_expires_at = NULL, updated_at = NOW()
			  WHERE reset_token = $1 AND reset_token_expires_at >= $2
			  RETURNING ` + userColumns
	return r.getOne(ctx, "redeem reset token", query, token, now, passwordHash)
}
