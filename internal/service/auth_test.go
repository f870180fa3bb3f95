package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/sickfits-server/internal/mocks"
	"github.com/dtroode/sickfits-server/internal/model"
	"github.com/dtroode/sickfits-server/internal/testutil"
	"github.com/dtroode/sickfits-server/internal/token"
)

func newTestAuth(t *testing.T) (*Auth, *mocks.UserStore, *mocks.EventPublisher) {
	t.Helper()
	users := mocks.NewUserStore(t)
	events := mocks.NewEventPublisher(t)
	sessions := NewSessionResolver(token.NewJWT("secret", time.Hour), users, testutil.MakeNoopLogger(), time.Second)
	a := NewAuth(users, sessions, NewGuard(), events, testutil.MakeNoopLogger(), DefaultTimeouts)
	a.bcryptCost = bcrypt.MinCost
	return a, users, events
}

func TestAuth_SignupThenSignin(t *testing.T) {
	ctx := context.Background()
	a, users, events := newTestAuth(t)

	var created model.User
	users.On("Create", mock.Anything, mock.MatchedBy(func(u model.User) bool {
		return u.Email == "wes@example.com" && u.Permissions.Has(model.PermissionUser) && len(u.Permissions) == 1
	})).Return(func(_ context.Context, u model.User) (model.User, error) {
		created = u
		return u, nil
	})
	events.On("Publish", mock.Anything, mock.MatchedBy(func(e model.Event) bool {
		return e.Type == model.EventUserSignedUp
	})).Return(nil)

	signedUp, signupToken, err := a.Signup(ctx, " Wes@Example.com ", "Wes", "hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, signupToken)
	assert.NotEqual(t, []byte("hunter2"), signedUp.PasswordHash)

	users.On("GetByEmail", mock.Anything, "wes@example.com").Return(func(context.Context, string) (model.User, error) {
		return created, nil
	})

	signedIn, signinToken, err := a.Signin(ctx, "wes@example.com", "hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, signinToken)
	assert.Equal(t, signedUp.ID, signedIn.ID)

	tokens := token.NewJWT("secret", time.Hour)
	for name, raw := range map[string]string{"signup": signupToken, "signin": signinToken} {
		userID, err := tokens.ParseSessionToken(raw)
		require.NoError(t, err, name)
		assert.Equal(t, signedUp.ID, userID, name)
	}
}

func TestAuth_Signup_EmailTaken(t *testing.T) {
	a, users, _ := newTestAuth(t)
	users.On("Create", mock.Anything, mock.Anything).Return(model.User{}, model.ErrConflict)

	_, _, err := a.Signup(context.Background(), "a@b.c", "A", "pw")
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindValidationFailed))
	assert.Contains(t, err.Error(), "email is taken")
}

func TestAuth_Signup_PublishFailureIsIgnored(t *testing.T) {
	a, users, events := newTestAuth(t)
	users.On("Create", mock.Anything, mock.Anything).Return(func(_ context.Context, u model.User) (model.User, error) {
		return u, nil
	})
	events.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	_, tok, err := a.Signup(context.Background(), "a@b.c", "A", "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
}

func TestAuth_Signin_Failures(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("right"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name     string
		setup    func(*mocks.UserStore)
		password string
		kind     model.ErrorKind
	}{
		{
			name: "unknown email",
			setup: func(us *mocks.UserStore) {
				us.On("GetByEmail", mock.Anything, "a@b.c").Return(model.User{}, model.ErrNotFound)
			},
			password: "right",
			kind:     model.KindValidationFailed,
		},
		{
			name: "wrong password",
			setup: func(us *mocks.UserStore) {
				us.On("GetByEmail", mock.Anything, "a@b.c").Return(model.User{ID: uuid.New(), PasswordHash: hash}, nil)
			},
			password: "wrong",
			kind:     model.KindValidationFailed,
		},
		{
			name: "store failure",
			setup: func(us *mocks.UserStore) {
				us.On("GetByEmail", mock.Anything, "a@b.c").Return(model.User{}, errors.New("db down"))
			},
			password: "right",
			kind:     model.KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, users, _ := newTestAuth(t)
			tt.setup(users)

			_, tok, err := a.Signin(context.Background(), "a@b.c", tt.password)
			require.Error(t, err)
			assert.Empty(t, tok)
			assert.Equal(t, tt.kind, model.KindOf(err))
		})
	}
}

func TestAuth_Me(t *testing.T) {
	a, users, _ := newTestAuth(t)

	me, err := a.Me(context.Background(), model.Anonymous())
	require.NoError(t, err)
	assert.Nil(t, me)

	id := uuid.New()
	users.On("GetByID", mock.Anything, id).Return(model.User{ID: id, Name: "Wes"}, nil)
	me, err = a.Me(context.Background(), model.Principal{ID: id})
	require.NoError(t, err)
	require.NotNil(t, me)
	assert.Equal(t, "Wes", me.Name)
}

func TestAuth_UpdatePermissions(t *testing.T) {
	self := uuid.New()
	target := uuid.New()

	tests := []struct {
		name      string
		principal model.Principal
		userID    uuid.UUID
		perms     []string
		setup     func(*mocks.UserStore)
		kind      model.ErrorKind
		wantErr   bool
	}{
		{
			name:      "anonymous",
			principal: model.Anonymous(),
			userID:    target,
			perms:     []string{"ADMIN"},
			setup:     func(*mocks.UserStore) {},
			kind:      model.KindAuthenticationRequired,
			wantErr:   true,
		},
		{
			name:      "self escalation is denied",
			principal: model.Principal{ID: self, Permissions: model.NewPermissionSet(model.PermissionUser)},
			userID:    self,
			perms:     []string{"ADMIN"},
			setup:     func(*mocks.UserStore) {},
			kind:      model.KindAuthorizationDenied,
			wantErr:   true,
		},
		{
			name:      "unknown permission",
			principal: model.Principal{ID: self, Permissions: model.NewPermissionSet(model.PermissionAdmin)},
			userID:    target,
			perms:     []string{"SUPERUSER"},
			setup:     func(*mocks.UserStore) {},
			kind:      model.KindValidationFailed,
			wantErr:   true,
		},
		{
			name:      "permission manager updates another user",
			principal: model.Principal{ID: self, Permissions: model.NewPermissionSet(model.PermissionPermissionUpdate)},
			userID:    target,
			perms:     []string{"user", "ITEMCREATE"},
			setup: func(us *mocks.UserStore) {
				want := model.NewPermissionSet(model.PermissionUser, model.PermissionItemCreate)
				us.On("UpdatePermissions", mock.Anything, target, want).Return(model.User{ID: target, Permissions: want}, nil)
			},
		},
		{
			name:      "target missing",
			principal: model.Principal{ID: self, Permissions: model.NewPermissionSet(model.PermissionAdmin)},
			userID:    target,
			perms:     []string{"USER"},
			setup: func(us *mocks.UserStore) {
				us.On("UpdatePermissions", mock.Anything, target, mock.Anything).Return(model.User{}, model.ErrNotFound)
			},
			kind:    model.KindNotFound,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, users, _ := newTestAuth(t)
			tt.setup(users)

			user, err := a.UpdatePermissions(context.Background(), tt.principal, tt.userID, tt.perms)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.kind, model.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, user.Permissions.Has(model.PermissionItemCreate))
		})
	}
}

func TestAuth_Users(t *testing.T) {
	a, users, _ := newTestAuth(t)

	_, err := a.Users(context.Background(), model.Principal{ID: uuid.New(), Permissions: model.NewPermissionSet(model.PermissionUser)})
	assert.True(t, model.IsKind(err, model.KindAuthorizationDenied))

	users.On("List", mock.Anything).Return([]model.User{{ID: uuid.New()}}, nil)
	list, err := a.Users(context.Background(), model.Principal{ID: uuid.New(), Permissions: model.NewPermissionSet(model.PermissionAdmin)})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
