package middleware

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	apicontext "github.com/dtroode/sickfits-server/internal/api/context"
	"github.com/dtroode/sickfits-server/internal/mocks"
	"github.com/dtroode/sickfits-server/internal/model"
	"github.com/dtroode/sickfits-server/internal/service"
	"github.com/dtroode/sickfits-server/internal/testutil"
)

func TestAuthenticate_AuthFunc(t *testing.T) {
	t.Parallel()

	admin := model.Principal{ID: uuid.New(), Permissions: model.NewPermissionSet(model.PermissionAdmin)}
	shopper := model.Principal{ID: uuid.New(), Permissions: model.NewPermissionSet(model.PermissionUser, model.PermissionPermissionUpdate)}

	tests := []struct {
		name         string
		mdAuthHeader string
		resolved     *model.Principal
		wantGRPCCode codes.Code
	}{
		{
			name:         "missing authorization header",
			wantGRPCCode: codes.Unauthenticated,
		},
		{
			name:         "invalid token resolves anonymous",
			mdAuthHeader: "Bearer forged",
			resolved:     &model.Principal{},
			wantGRPCCode: codes.Unauthenticated,
		},
		{
			name:         "non-admin session",
			mdAuthHeader: "Bearer shopper",
			resolved:     &shopper,
			wantGRPCCode: codes.PermissionDenied,
		},
		{
			name:         "admin session",
			mdAuthHeader: "Bearer admin",
			resolved:     &admin,
			wantGRPCCode: codes.OK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sessions := mocks.NewSessionResolver(t)
			if tt.resolved != nil {
				sessions.On("Resolve", mock.Anything, mock.AnythingOfType("string")).Return(*tt.resolved)
			}
			cm := apicontext.NewManager()
			m := NewAuthenticate(sessions, service.NewGuard(), cm, testutil.MakeNoopLogger())

			ctx := context.Background()
			if tt.mdAuthHeader != "" {
				ctx = metadata.NewIncomingContext(ctx, metadata.Pairs("authorization", tt.mdAuthHeader))
			}

			newCtx, err := m.AuthFunc(ctx)

			if tt.wantGRPCCode != codes.OK {
				require.Error(t, err)
				st, ok := status.FromError(err)
				assert.True(t, ok)
				assert.Equal(t, tt.wantGRPCCode, st.Code())
				assert.Nil(t, newCtx)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, admin.ID, cm.PrincipalFromContext(newCtx).ID)
		})
	}
}

func TestRecovery_Handle(t *testing.T) {
	t.Parallel()

	err := NewRecovery(testutil.MakeNoopLogger()).Handle("boom")
	assert.Equal(t, codes.Internal, status.Code(err))
}
