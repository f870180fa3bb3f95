// Package handler implements the public JSON API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/sickfits-server/internal/logger"
	"github.com/dtroode/sickfits-server/internal/model"
)

const maxBodyBytes = 1 << 20

// AuthService defines account and session operations.
type AuthService interface {
	Signup(ctx context.Context, email, name, password string) (model.User, string, error)
	Signin(ctx context.Context, email, password string) (model.User, string, error)
	Me(ctx context.Context, p model.Principal) (*model.User, error)
	Users(ctx context.Context, p model.Principal) ([]model.User, error)
	UpdatePermissions(ctx context.Context, p model.Principal, userID uuid.UUID, names []string) (model.User, error)
}

// ResetService defines password reset operations.
type ResetService interface {
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password, confirmPassword string) (model.User, string, error)
}

// CatalogService defines catalog reads and item mutations.
type CatalogService interface {
	Items(ctx context.Context, query string, page, perPage int) (model.ItemPage, error)
	Item(ctx context.Context, id uuid.UUID) (model.Item, error)
	CreateItem(ctx context.Context, p model.Principal, params model.CreateItemParams) (model.Item, error)
	UpdateItem(ctx context.Context, p model.Principal, id uuid.UUID, patch model.ItemPatch) (model.Item, error)
	DeleteItem(ctx context.Context, p model.Principal, id uuid.UUID) (model.Item, error)
	UploadImage(ctx context.Context, p model.Principal, filename, contentType string, size int64, r io.Reader) (string, error)
	Image(ctx context.Context, key string) (io.ReadCloser, error)
}

// CartService defines cart operations.
type CartService interface {
	AddToCart(ctx context.Context, p model.Principal, itemID uuid.UUID) (model.CartItem, error)
	RemoveFromCart(ctx context.Context, p model.Principal, cartItemID uuid.UUID) (model.CartItem, error)
	Lines(ctx context.Context, p model.Principal) ([]model.CartLine, error)
}

// CheckoutService turns the cart into a paid order.
type CheckoutService interface {
	CreateOrder(ctx context.Context, p model.Principal, source string) (model.Order, error)
}

// OrderService defines order reads.
type OrderService interface {
	Order(ctx context.Context, p model.Principal, id uuid.UUID) (model.Order, error)
	Orders(ctx context.Context, p model.Principal) ([]model.Order, error)
}

// SessionCookie configures the session cookie written on signin.
type SessionCookie struct {
	MaxAge time.Duration
	Secure bool
}

func (c SessionCookie) set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     model.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c SessionCookie) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     model.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

var kindStatus = map[model.ErrorKind]int{
	model.KindAuthenticationRequired:    http.StatusUnauthorized,
	model.KindAuthorizationDenied:       http.StatusForbidden,
	model.KindNotFound:                  http.StatusNotFound,
	model.KindValidationFailed:          http.StatusBadRequest,
	model.KindExpiredOrInvalidToken:     http.StatusUnauthorized,
	model.KindPaymentDeclined:           http.StatusPaymentRequired,
	model.KindUpstreamFailure:           http.StatusBadGateway,
	model.KindInconsistentCheckoutState: http.StatusInternalServerError,
}

// handleError writes the typed error's message. Untyped errors are logged
// and reported without detail.
func handleError(w http.ResponseWriter, log *logger.Logger, op string, err error) {
	var e *model.Error
	if errors.As(err, &e) {
		code, ok := kindStatus[e.Kind]
		if !ok {
			code = http.StatusInternalServerError
		}
		if code >= http.StatusInternalServerError {
			log.Error(op+" failed",
				"kind", e.Kind.String(),
				"error", err.Error())
		}
		writeJSON(w, code, errorResponse{Error: e.Message, Kind: e.Kind.String()})
		return
	}

	log.Error(op+" failed", "error", err.Error())
	writeErr(w, http.StatusInternalServerError, "internal server error")
}
