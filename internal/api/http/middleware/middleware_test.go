package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apicontext "github.com/dtroode/sickfits-server/internal/api/context"
	"github.com/dtroode/sickfits-server/internal/mocks"
	"github.com/dtroode/sickfits-server/internal/model"
	"github.com/dtroode/sickfits-server/internal/testutil"
)

var _ SessionResolver = (*mocks.SessionResolver)(nil)

func okHandler(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
	})
}

func TestAuthenticate_Handle(t *testing.T) {
	t.Parallel()

	user := model.Principal{ID: uuid.New(), Permissions: model.NewPermissionSet(model.PermissionUser)}

	tests := []struct {
		name    string
		prepare func(*http.Request)
		token   string
		want    model.Principal
	}{
		{
			name:    "cookie",
			prepare: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: model.SessionCookieName, Value: "c-token"}) },
			token:   "c-token",
			want:    user,
		},
		{
			name:    "bearer",
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer b-token") },
			token:   "b-token",
			want:    user,
		},
		{
			name: "cookie wins over bearer",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: model.SessionCookieName, Value: "c-token"})
				r.Header.Set("Authorization", "Bearer b-token")
			},
			token: "c-token",
			want:  user,
		},
		{
			name:    "no credential",
			prepare: func(*http.Request) {},
			token:   "",
			want:    model.Anonymous(),
		},
		{
			name:    "rejected credential stays anonymous",
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer forged") },
			token:   "forged",
			want:    model.Anonymous(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sessions := mocks.NewSessionResolver(t)
			sessions.On("Resolve", mock.Anything, tt.token).Return(tt.want)
			cm := apicontext.NewManager()

			var got model.Principal
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = cm.PrincipalFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()
			NewAuthenticate(sessions, cm).Handle(next).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want.ID, got.ID)
		})
	}
}

func TestRateLimit_Handle(t *testing.T) {
	t.Parallel()

	rl := NewRateLimit(1, 2)
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }
	h := rl.Handle(okHandler(http.StatusOK))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/signin", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:1002"))
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1000"))

	fixed = fixed.Add(time.Second)
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1003"))
}

func TestRateLimit_SweepsIdleClients(t *testing.T) {
	t.Parallel()

	rl := NewRateLimit(1, 1)
	start := time.Now()
	rl.now = func() time.Time { return start }
	rl.allow("a")
	rl.allow("b")
	assert.Len(t, rl.clients, 2)

	rl.now = func() time.Time { return start.Add(2 * limiterIdleTTL) }
	rl.allow("c")
	assert.Len(t, rl.clients, 1)
}

func TestCORS_Handle(t *testing.T) {
	t.Parallel()

	h := NewCORS("http://localhost:7777").Handle(okHandler(http.StatusOK))

	tests := []struct {
		name       string
		method     string
		origin     string
		wantCode   int
		wantOrigin string
	}{
		{name: "allowed origin", method: http.MethodGet, origin: "http://localhost:7777", wantCode: http.StatusOK, wantOrigin: "http://localhost:7777"},
		{name: "preflight", method: http.MethodOptions, origin: "http://localhost:7777", wantCode: http.StatusNoContent, wantOrigin: "http://localhost:7777"},
		{name: "foreign origin", method: http.MethodGet, origin: "http://evil.example", wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, "/api/v1/items", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRecovery_Handle(t *testing.T) {
	t.Parallel()

	h := NewRecovery(testutil.MakeNoopLogger()).Handle(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestLogging_Handle(t *testing.T) {
	t.Parallel()

	for _, code := range []int{http.StatusOK, http.StatusNotFound, http.StatusBadGateway} {
		rec := httptest.NewRecorder()
		NewLogging(testutil.MakeNoopLogger()).Handle(okHandler(code)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, code, rec.Code)
	}
}

type observation struct {
	method string
	route  string
	status int
}

type recordingObserver struct {
	mu  sync.Mutex
	obs []observation
}

func (r *recordingObserver) Observe(method, route string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obs = append(r.obs, observation{method, route, status})
}

func TestMetrics_Handle(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	r := mux.NewRouter()
	r.Use(NewMetrics(obs).Handle)
	r.Handle("/api/v1/items/{id}", okHandler(http.StatusNotFound)).Methods(http.MethodGet)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/items/123", nil))

	assert.Equal(t, []observation{{"GET", "/api/v1/items/{id}", http.StatusNotFound}}, obs.obs)
}

func TestRouteName_Unmatched(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unmatched", routeName(httptest.NewRequest(http.MethodGet, "/", nil)))
}
