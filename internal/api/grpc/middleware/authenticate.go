package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/sickfits-server/internal/logger"
	"github.com/dtroode/sickfits-server/internal/model"
)

// SessionResolver turns a raw session credential into a principal.
type SessionResolver interface {
	Resolve(ctx context.Context, rawToken string) model.Principal
}

// Authorizer decides whether a principal may act.
type Authorizer interface {
	Authorize(p model.Principal, required model.PermissionSet, owner *uuid.UUID) model.Decision
}

var operators = model.NewPermissionSet(model.PermissionAdmin)

// Authenticate admits only ADMIN sessions presented as bearer tokens.
type Authenticate struct {
	sessions       SessionResolver
	guard          Authorizer
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewAuthenticate(sessions SessionResolver, guard Authorizer, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{
		sessions:       sessions,
		guard:          guard,
		contextManager: contextManager,
		logger:         logger,
	}
}

// AuthFunc resolves the bearer token and returns a context carrying the principal.
func (m *Authenticate) AuthFunc(ctx context.Context) (context.Context, error) {
	token, err := auth.AuthFromMD(ctx, "bearer")
	if err != nil {
		return nil, err
	}

	p := m.sessions.Resolve(ctx, token)
	decision := m.guard.Authorize(p, operators, nil)
	if !decision.Allowed() {
		code := codes.PermissionDenied
		if p.IsAnonymous() {
			code = codes.Unauthenticated
		}
		m.logger.Warn("gRPC operator call rejected",
			"user_id", p.ID.String(),
			"code", code.String())
		return nil, status.Error(code, decision.Err().Error())
	}

	return m.contextManager.WithPrincipal(ctx, p), nil
}
