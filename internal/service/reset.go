package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/sickfits-server/internal/logger"
	"github.com/dtroode/sickfits-server/internal/mail"
	"github.com/dtroode/sickfits-server/internal/model"
)

const (
	resetTokenBytes = 32
	// DefaultResetTTL is how long a reset token stays valid.
	DefaultResetTTL = 3_600_000 * time.Millisecond
)

// Reset issues and redeems single-use password reset tokens.
type Reset struct {
	users      model.UserStore
	mailer     model.Mailer
	sessions   *SessionResolver
	logger     *logger.Logger
	timeouts   Timeouts
	resetURL   string
	ttl        time.Duration
	bcryptCost int
	now        func() time.Time
}

func NewReset(
	users model.UserStore,
	mailer model.Mailer,
	sessions *SessionResolver,
	logger *logger.Logger,
	timeouts Timeouts,
	resetURL string,
	ttl time.Duration,
) *Reset {
	if ttl <= 0 {
		ttl = DefaultResetTTL
	}
	return &Reset{
		users:      users,
		mailer:     mailer,
		sessions:   sessions,
		logger:     logger,
		timeouts:   timeouts,
		resetURL:   resetURL,
		ttl:        ttl,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// RequestReset stores a fresh token for the user, replacing any previous one,
// and mails the reset link.
func (r *Reset) RequestReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	r.logger.Debug("Reset service: reset requested",
		"email", email)

	storeCtx, cancel := withTimeout(ctx, r.timeouts.Store)
	defer cancel()

	user, err := r.users.GetByEmail(storeCtx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			// Reveals whether an account exists.
			r.logger.Info("Reset service: reset requested for unknown email",
				"email", email)
			return model.NewErrUserNotFound(email)
		}
		return fmt.Errorf("failed to get user by email: %w", err)
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}
	expiresAt := r.now().Add(r.ttl)

	if err := r.users.SetResetToken(storeCtx, user.ID, token, expiresAt); err != nil {
		r.logger.Error("Reset service: failed to store reset token",
			"user_id", user.ID.String(),
			"error", err.Error())
		return fmt.Errorf("failed to set reset token: %w", err)
	}

	link, err := r.resetLink(token)
	if err != nil {
		return err
	}
	msg, err := mail.NewResetMail(user.Email, link, r.ttl)
	if err != nil {
		return err
	}

	mailCtx, cancelMail := withTimeout(ctx, r.timeouts.Mail)
	defer cancelMail()

	if err := r.mailer.Send(mailCtx, msg); err != nil {
		r.logger.Error("Reset service: failed to send reset email",
			"user_id", user.ID.String(),
			"error", err.Error())
		return model.NewErrUpstream("send reset email", err)
	}

	r.logger.Info("Reset service: reset token issued",
		"user_id", user.ID.String(),
		"expires_at", expiresAt)

	return nil
}

// ResetPassword redeems token, sets the new password and signs the user in.
// A token is accepted up to and including its expiry instant, and only once.
func (r *Reset) ResetPassword(ctx context.Context, token, password, confirmPassword string) (model.User, string, error) {
	if password != confirmPassword {
		return model.User{}, "", model.NewErrValidation("your passwords don't match")
	}
	if password == "" {
		return model.User{}, "", model.NewErrValidation("password is required")
	}
	if token == "" {
		return model.User{}, "", model.NewErrExpiredOrInvalidToken()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.bcryptCost)
	if err != nil {
		return model.User{}, "", fmt.Errorf("failed to hash password: %w", err)
	}

	storeCtx, cancel := withTimeout(ctx, r.timeouts.Store)
	defer cancel()

	updated, err := r.users.RedeemResetToken(storeCtx, token, r.now(), hash)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, "", model.NewErrExpiredOrInvalidToken()
		}
		r.logger.Error("Reset service: failed to redeem reset token",
			"error", err.Error())
		return model.User{}, "", fmt.Errorf("failed to redeem reset token: %w", err)
	}

	session, err := r.sessions.Issue(updated.ID)
	if err != nil {
		return model.User{}, "", err
	}

	r.logger.Info("Reset service: password reset",
		"user_id", updated.ID.String())

	return updated, session, nil
}

func (r *Reset) resetLink(token string) (string, error) {
	u, err := url.Parse(r.resetURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse reset url: %w", err)
	}
	q := u.Query()
	q.Set("resetToken", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func newResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
