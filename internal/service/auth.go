package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/sickfits-server/internal/logger"
	"github.com/dtroode/sickfits-server/internal/model"
)

var permissionManagers = model.NewPermissionSet(model.PermissionAdmin, model.PermissionPermissionUpdate)

type Auth struct {
	users      model.UserStore
	sessions   *SessionResolver
	guard      *Guard
	events     model.EventPublisher
	logger     *logger.Logger
	timeouts   Timeouts
	bcryptCost int
	now        func() time.Time
}

func NewAuth(
	users model.UserStore,
	sessions *SessionResolver,
	guard *Guard,
	events model.EventPublisher,
	logger *logger.Logger,
	timeouts Timeouts,
) *Auth {
	return &Auth{
		users:      users,
		sessions:   sessions,
		guard:      guard,
		events:     events,
		logger:     logger,
		timeouts:   timeouts,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// Signup creates a USER account and returns it with a fresh session credential.
func (a *Auth) Signup(ctx context.Context, email, name, password string) (model.User, string, error) {
	email = normalizeEmail(email)
	a.logger.Debug("Auth service: signing up user",
		"email", email)

	if email == "" || name == "" || password == "" {
		return model.User{}, "", model.NewErrValidation("email, name and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.bcryptCost)
	if err != nil {
		return model.User{}, "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := a.now()
	storeCtx, cancel := withTimeout(ctx, a.timeouts.Store)
	defer cancel()

	user, err := a.users.Create(storeCtx, model.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Permissions:  model.NewPermissionSet(model.PermissionUser),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			a.logger.Info("Auth service: email is taken",
				"email", email)
			return model.User{}, "", model.NewErrValidation("email is taken")
		}
		a.logger.Error("Auth service: failed to create user",
			"email", email,
			"error", err.Error())
		return model.User{}, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := a.sessions.Issue(user.ID)
	if err != nil {
		return model.User{}, "", err
	}

	a.publish(ctx, model.Event{
		Type:     model.EventUserSignedUp,
		UserID:   user.ID.String(),
		Metadata: map[string]any{"email": user.Email},
	})

	a.logger.Info("Auth service: user signed up",
		"user_id", user.ID.String())

	return user, token, nil
}

// Signin verifies credentials. Unknown email and wrong password are reported identically.
func (a *Auth) Signin(ctx context.Context, email, password string) (model.User, string, error) {
	email = normalizeEmail(email)
	a.logger.Debug("Auth service: signing in user",
		"email", email)

	invalid := model.NewErrValidation("invalid email or password")

	storeCtx, cancel := withTimeout(ctx, a.timeouts.Store)
	defer cancel()

	user, err := a.users.GetByEmail(storeCtx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, "", invalid
		}
		a.logger.Error("Auth service: failed to get user by email",
			"email", email,
			"error", err.Error())
		return model.User{}, "", fmt.Errorf("failed to get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		a.logger.Info("Auth service: wrong password",
			"user_id", user.ID.String())
		return model.User{}, "", invalid
	}

	token, err := a.sessions.Issue(user.ID)
	if err != nil {
		return model.User{}, "", err
	}

	a.logger.Info("Auth service: user signed in",
		"user_id", user.ID.String())

	return user, token, nil
}

// Me returns the principal's user, or nil for anonymous callers.
func (a *Auth) Me(ctx context.Context, p model.Principal) (*model.User, error) {
	if p.IsAnonymous() {
		return nil, nil
	}

	storeCtx, cancel := withTimeout(ctx, a.timeouts.Store)
	defer cancel()

	user, err := a.users.GetByID(storeCtx, p.ID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

// Users lists all accounts; requires ADMIN or PERMISSIONUPDATE.
func (a *Auth) Users(ctx context.Context, p model.Principal) ([]model.User, error) {
	if err := a.guard.Authorize(p, permissionManagers, nil).Err(); err != nil {
		return nil, err
	}

	storeCtx, cancel := withTimeout(ctx, a.timeouts.Store)
	defer cancel()

	users, err := a.users.List(storeCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdatePermissions replaces a user's permission set. There is no ownership
// bypass, so users cannot grant themselves permissions.
func (a *Auth) UpdatePermissions(ctx context.Context, p model.Principal, userID uuid.UUID, names []string) (model.User, error) {
	a.logger.Debug("Auth service: updating permissions",
		"actor_id", p.ID.String(),
		"user_id", userID.String(),
		"permissions", names)

	if err := a.guard.Authorize(p, permissionManagers, nil).Err(); err != nil {
		return model.User{}, err
	}

	perms, err := model.ParsePermissionSet(names)
	if err != nil {
		return model.User{}, model.NewErrValidation(err.Error())
	}

	storeCtx, cancel := withTimeout(ctx, a.timeouts.Store)
	defer cancel()

	user, err := a.users.UpdatePermissions(storeCtx, userID, perms)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, model.NewErrNotFound("user")
		}
		a.logger.Error("Auth service: failed to update permissions",
			"user_id", userID.String(),
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to update permissions: %w", err)
	}

	a.logger.Info("Auth service: permissions updated",
		"actor_id", p.ID.String(),
		"user_id", userID.String(),
		"permissions", perms.String())

	return user, nil
}

// publish is best effort; event delivery never fails the calling operation.
func (a *Auth) publish(ctx context.Context, event model.Event) {
	if a.events == nil {
		return
	}
	ctx, cancel := withTimeout(context.WithoutCancel(ctx), a.timeouts.Store)
	defer cancel()
	if err := a.events.Publish(ctx, event); err != nil {
		a.logger.Warn("Auth service: failed to publish event",
			"type", event.Type,
			"error", err.Error())
	}
}
