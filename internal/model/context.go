package model

import "context"

// ContextManager stores the request principal in a context.
type ContextManager interface {
	WithPrincipal(ctx context.Context, principal Principal) context.Context
	// PrincipalFromContext returns the anonymous principal when none is set.
	PrincipalFromContext(ctx context.Context) Principal
}
