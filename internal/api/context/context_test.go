package context

import (
	stdctx "context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/dtroode/sickfits-server/internal/model"
)

func TestManager_WithPrincipal(t *testing.T) {
	m := NewManager()
	p := model.Principal{ID: uuid.New(), Permissions: model.NewPermissionSet(model.PermissionAdmin)}

	ctx := m.WithPrincipal(stdctx.Background(), p)

	got := m.PrincipalFromContext(ctx)
	assert.Equal(t, p.ID, got.ID)
	assert.True(t, got.Permissions.Has(model.PermissionAdmin))
}

func TestManager_PrincipalFromContext_Anonymous(t *testing.T) {
	m := NewManager()

	got := m.PrincipalFromContext(stdctx.Background())
	assert.True(t, got.IsAnonymous())
	assert.Empty(t, got.Permissions)
}

func TestManager_WithPrincipal_Overrides(t *testing.T) {
	m := NewManager()
	first := model.Principal{ID: uuid.New()}
	second := model.Principal{ID: uuid.New()}

	ctx := m.WithPrincipal(m.WithPrincipal(stdctx.Background(), first), second)

	assert.Equal(t, second.ID, m.PrincipalFromContext(ctx).ID)
}
