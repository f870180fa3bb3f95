package service

import (
	"github.com/google/uuid"

	"github.com/dtroode/sickfits-server/internal/model"
)

// Guard decides whether a principal may perform an action.
type Guard struct{}

func NewGuard() *Guard {
	return &Guard{}
}

// Authorize applies, in order: anonymous principals are denied; the owner of
// the target is allowed; a principal holding any of required is allowed.
// A nil owner disables the ownership bypass.
func (g *Guard) Authorize(p model.Principal, required model.PermissionSet, owner *uuid.UUID) model.Decision {
	if p.IsAnonymous() {
		return model.DenyAnonymous()
	}
	if owner != nil && *owner == p.ID {
		return model.Allow()
	}
	if p.Permissions.Intersects(required) {
		return model.Allow()
	}
	return model.Deny(required)
}

// RequireLogin denies anonymous principals only.
func (g *Guard) RequireLogin(p model.Principal) error {
	if p.IsAnonymous() {
		return model.NewErrAuthenticationRequired()
	}
	return nil
}
