package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Create(ctx context.Context, user User) (User, error)
	List(ctx context.Context) ([]User, error)
	UpdatePermissions(ctx context.Context, id uuid.UUID, permissions PermissionSet) (User, error)
	SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error
	// RedeemResetToken stores passwordHash for the user holding token and
	// clears the token in one conditional write. It returns ErrNotFound when
	// no user holds token with expires_at >= now, so a token is redeemed once.
	RedeemResetToken(ctx context.Context, token string, now time.Time, passwordHash []byte) (User, error)
}

// User represents a stored account.
type User struct {
	ID                  uuid.UUID
	Email               string
	Name                string
	PasswordHash        []byte
	Permissions         PermissionSet
	ResetToken          *string
	ResetTokenExpiresAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Principal returns the request identity for the user.
func (u User) Principal() Principal {
	perms := u.Permissions
	if perms == nil {
		perms = PermissionSet{}
	}
	return Principal{ID: u.ID, Permissions: perms}
}
