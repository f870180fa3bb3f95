package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenManager signs and verifies session credentials.
type TokenManager interface {
	GenerateSessionToken(userID uuid.UUID) (string, error)
	ParseSessionToken(token string) (uuid.UUID, error)
	MaxAge() time.Duration
}

// SessionCookieName is the cookie carrying the session credential.
const SessionCookieName = "token"
