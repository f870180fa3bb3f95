package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dtroode/sickfits-server/internal/model"
)

// SessionResolver turns a raw session credential into a principal.
type SessionResolver interface {
	Resolve(ctx context.Context, rawToken string) model.Principal
}

// Authenticate attaches the request principal to the context. It never
// rejects a request; anonymous callers proceed with the anonymous principal.
type Authenticate struct {
	sessions       SessionResolver
	contextManager model.ContextManager
}

func NewAuthenticate(sessions SessionResolver, contextManager model.ContextManager) *Authenticate {
	return &Authenticate{sessions: sessions, contextManager: contextManager}
}

func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := m.sessions.Resolve(r.Context(), rawToken(r))
		ctx := m.contextManager.WithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rawToken prefers the session cookie and falls back to a bearer header.
func rawToken(r *http.Request) string {
	if c, err := r.Cookie(model.SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
