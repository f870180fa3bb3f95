package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/sickfits-server/internal/logger"
	"github.com/dtroode/sickfits-server/internal/model"
)

// SessionResolver turns a session credential into a request Principal and
// issues new credentials. Resolution never fails: anything short of a valid
// credential for an existing user yields the anonymous principal.
type SessionResolver struct {
	tokens       model.TokenManager
	users        model.UserStore
	logger       *logger.Logger
	storeTimeout time.Duration
}

func NewSessionResolver(tokens model.TokenManager, users model.UserStore, logger *logger.Logger, storeTimeout time.Duration) *SessionResolver {
	return &SessionResolver{
		tokens:       tokens,
		users:        users,
		logger:       logger,
		storeTimeout: storeTimeout,
	}
}

func (s *SessionResolver) Resolve(ctx context.Context, rawToken string) model.Principal {
	if rawToken == "" {
		return model.Anonymous()
	}

	userID, err := s.tokens.ParseSessionToken(rawToken)
	if err != nil {
		s.logger.Debug("Session resolver: rejected session token",
			"error", err.Error())
		return model.Anonymous()
	}

	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logger.Debug("Session resolver: failed to load session user",
			"user_id", userID.String(),
			"error", err.Error())
		return model.Anonymous()
	}

	return user.Principal()
}

func (s *SessionResolver) Issue(userID uuid.UUID) (string, error) {
	token, err := s.tokens.GenerateSessionToken(userID)
	if err != nil {
		return "", fmt.Errorf("failed to issue session token: %w", err)
	}
	return token, nil
}

// MaxAge is the lifetime of issued credentials, used for the cookie max-age.
func (s *SessionResolver) MaxAge() time.Duration {
	return s.tokens.MaxAge()
}
