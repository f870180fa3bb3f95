package service

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
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

var resetEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestReset(t *testing.T, now time.Time) (*Reset, *mocks.UserStore, *mocks.Mailer) {
	t.Helper()
	users := mocks.NewUserStore(t)
	mailer := mocks.NewMailer(t)
	sessions := NewSessionResolver(token.NewJWT("secret", time.Hour), users, testutil.MakeNoopLogger(), time.Second)
	r := NewReset(users, mailer, sessions, testutil.MakeNoopLogger(), DefaultTimeouts, "http://localhost:7777/reset", DefaultResetTTL)
	r.bcryptCost = bcrypt.MinCost
	r.now = func() time.Time { return now }
	return r, users, mailer
}

func TestReset_RequestReset(t *testing.T) {
	r, users, mailer := newTestReset(t, resetEpoch)
	user := model.User{ID: uuid.New(), Email: "wes@example.com"}

	var stored string
	users.On("GetByEmail", mock.Anything, "wes@example.com").Return(user, nil)
	users.On("SetResetToken", mock.Anything, user.ID, mock.AnythingOfType("string"), resetEpoch.Add(3_600_000*time.Millisecond)).
		Run(func(args mock.Arguments) { stored = args.String(2) }).
		Return(nil)
	mailer.On("Send", mock.Anything, mock.MatchedBy(func(m model.Mail) bool {
		return m.To == "wes@example.com" && stored != "" && strings.Contains(m.HTMLBody, "resetToken="+stored)
	})).Return(nil)

	require.NoError(t, r.RequestReset(context.Background(), "WES@example.com"))

	raw, err := hex.DecodeString(stored)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(raw), 20)
}

func TestReset_RequestReset_TokensDiffer(t *testing.T) {
	a, err := newResetToken()
	require.NoError(t, err)
	b, err := newResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 64)
}

func TestReset_RequestReset_UnknownEmail(t *testing.T) {
	r, users, _ := newTestReset(t, resetEpoch)
	users.On("GetByEmail", mock.Anything, "nobody@example.com").Return(model.User{}, model.ErrNotFound)

	err := r.RequestReset(context.Background(), "nobody@example.com")
	assert.True(t, model.IsKind(err, model.KindNotFound))
}

func TestReset_RequestReset_MailFailure(t *testing.T) {
	r, users, mailer := newTestReset(t, resetEpoch)
	user := model.User{ID: uuid.New(), Email: "wes@example.com"}
	users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
	users.On("SetResetToken", mock.Anything, user.ID, mock.Anything, mock.Anything).Return(nil)
	mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	err := r.RequestReset(context.Background(), user.Email)
	assert.True(t, model.IsKind(err, model.KindUpstreamFailure))
}

func TestReset_ResetPassword_MismatchBeforeLookup(t *testing.T) {
	r, _, _ := newTestReset(t, resetEpoch)

	_, _, err := r.ResetPassword(context.Background(), "any", "a", "b")
	assert.True(t, model.IsKind(err, model.KindValidationFailed))
}

// resetTokenStore keeps one reset token with the conditional-redeem
// semantics of the postgres store.
type resetTokenStore struct {
	*mocks.UserStore

	mu        sync.Mutex
	user      model.User
	token     string
	expiresAt time.Time
}

func (s *resetTokenStore) RedeemResetToken(_ context.Context, token string, now time.Time, hash []byte) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" || token != s.token || now.After(s.expiresAt) {
		return model.User{}, model.ErrNotFound
	}
	s.token = ""
	s.user.PasswordHash = hash
	return s.user, nil
}

func newResetWithStore(t *testing.T, now time.Time, store model.UserStore) *Reset {
	t.Helper()
	sessions := NewSessionResolver(token.NewJWT("secret", time.Hour), store, testutil.MakeNoopLogger(), time.Second)
	r := NewReset(store, mocks.NewMailer(t), sessions, testutil.MakeNoopLogger(), DefaultTimeouts, "http://localhost:7777/reset", DefaultResetTTL)
	r.bcryptCost = bcrypt.MinCost
	r.now = func() time.Time { return now }
	return r
}

func TestReset_ResetPassword_Boundary(t *testing.T) {
	expiresAt := resetEpoch.Add(3_600_000 * time.Millisecond)

	tests := []struct {
		name    string
		now     time.Time
		wantErr bool
	}{
		{name: "well before expiry", now: resetEpoch.Add(time.Minute)},
		{name: "exactly at expiry", now: resetEpoch.Add(3_600_000 * time.Millisecond)},
		{name: "one millisecond after expiry", now: resetEpoch.Add(3_600_001 * time.Millisecond), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := model.User{ID: uuid.New(), Email: "wes@example.com"}
			store := &resetTokenStore{UserStore: mocks.NewUserStore(t), user: user, token: "tok", expiresAt: expiresAt}
			r := newResetWithStore(t, tt.now, store)

			got, session, err := r.ResetPassword(context.Background(), "tok", "new", "new")
			if tt.wantErr {
				assert.True(t, model.IsKind(err, model.KindExpiredOrInvalidToken))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, user.ID, got.ID)
			assert.NotEmpty(t, session)
		})
	}
}

func TestReset_ResetPassword_SingleUse(t *testing.T) {
	user := model.User{ID: uuid.New(), Email: "wes@example.com"}
	store := &resetTokenStore{UserStore: mocks.NewUserStore(t), user: user, token: "tok", expiresAt: resetEpoch.Add(time.Hour)}
	r := newResetWithStore(t, resetEpoch, store)

	_, _, err := r.ResetPassword(context.Background(), "tok", "first", "first")
	require.NoError(t, err)

	_, _, err = r.ResetPassword(context.Background(), "tok", "second", "second")
	assert.True(t, model.IsKind(err, model.KindExpiredOrInvalidToken))
	assert.NoError(t, bcrypt.CompareHashAndPassword(store.user.PasswordHash, []byte("first")))
}

func TestReset_ResetPassword_ConcurrentRedemption(t *testing.T) {
	user := model.User{ID: uuid.New(), Email: "wes@example.com"}
	store := &resetTokenStore{UserStore: mocks.NewUserStore(t), user: user, token: "tok", expiresAt: resetEpoch.Add(time.Hour)}
	r := newResetWithStore(t, resetEpoch, store)

	const workers = 8
	var (
		wg        sync.WaitGroup
		start     = make(chan struct{})
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, session, err := r.ResetPassword(context.Background(), "tok", "pw", "pw")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && session != "":
				succeeded++
			case model.IsKind(err, model.KindExpiredOrInvalidToken):
				rejected++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, rejected)
}

func TestReset_ResetPassword_UnknownToken(t *testing.T) {
	r, users, _ := newTestReset(t, resetEpoch)
	users.On("RedeemResetToken", mock.Anything, "nope", resetEpoch, mock.Anything).Return(model.User{}, model.ErrNotFound)

	_, _, err := r.ResetPassword(context.Background(), "nope", "new", "new")
	assert.True(t, model.IsKind(err, model.KindExpiredOrInvalidToken))
}

func TestReset_ResetPassword_StoreFailure(t *testing.T) {
	r, users, _ := newTestReset(t, resetEpoch)
	users.On("RedeemResetToken", mock.Anything, "tok", resetEpoch, mock.Anything).Return(model.User{}, errors.New("db down"))

	_, _, err := r.ResetPassword(context.Background(), "tok", "new", "new")
	require.Error(t, err)
	assert.False(t, model.IsKind(err, model.KindExpiredOrInvalidToken))
}

func TestReset_ResetPassword_HashesPassword(t *testing.T) {
	r, users, _ := newTestReset(t, resetEpoch)
	user := model.User{ID: uuid.New()}

	users.On("RedeemResetToken", mock.Anything, "tok", resetEpoch, mock.MatchedBy(func(hash []byte) bool {
		return bcrypt.CompareHashAndPassword(hash, []byte("s3cret")) == nil
	})).Return(user, nil)

	_, _, err := r.ResetPassword(context.Background(), "tok", "s3cret", "s3cret")
	require.NoError(t, err)
}
