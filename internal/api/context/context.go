package context

import (
	"context"

	"github.com/dtroode/sickfits-server/internal/model"
)

type principalKey struct{}

var _ model.ContextManager = (*Manager)(nil)

// Manager stores the request principal in a context. It is shared by the
// HTTP and gRPC transports.
type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// WithPrincipal returns a copy of ctx carrying principal.
func (m *Manager) WithPrincipal(ctx context.Context, principal model.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// PrincipalFromContext returns the stored principal or the anonymous one.
func (m *Manager) PrincipalFromContext(ctx context.Context) model.Principal {
	p, ok := ctx.Value(principalKey{}).(model.Principal)
	if !ok {
		return model.Anonymous()
	}
	return p
}
