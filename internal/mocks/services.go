package mocks

import (
	"context"
	"io"
	"net"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/sickfits-server/internal/model"
)

// AuthService is a mock of the account service used by handlers.
type AuthService struct {
	mock.Mock
}

func NewAuthService(t testingT) *AuthService {
	m := &AuthService{}
	register(t, &m.Mock)
	return m
}

func (m *AuthService) Signup(ctx context.Context, email, name, password string) (model.User, string, error) {
	args := m.Called(ctx, email, name, password)
	return args.Get(0).(model.User), args.String(1), args.Error(2)
}

func (m *AuthService) Signin(ctx context.Context, email, password string) (model.User, string, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(model.User), args.String(1), args.Error(2)
}

func (m *AuthService) Me(ctx context.Context, p model.Principal) (*model.User, error) {
	args := m.Called(ctx, p)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *AuthService) Users(ctx context.Context, p model.Principal) ([]model.User, error) {
	args := m.Called(ctx, p)
	users, _ := args.Get(0).([]model.User)
	return users, args.Error(1)
}

func (m *AuthService) UpdatePermissions(ctx context.Context, p model.Principal, userID uuid.UUID, names []string) (model.User, error) {
	args := m.Called(ctx, p, userID, names)
	return args.Get(0).(model.User), args.Error(1)
}

// ResetService is a mock of the password reset service.
type ResetService struct {
	mock.Mock
}

func NewResetService(t testingT) *ResetService {
	m := &ResetService{}
	register(t, &m.Mock)
	return m
}

func (m *ResetService) RequestReset(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *ResetService) ResetPassword(ctx context.Context, token, password, confirmPassword string) (model.User, string, error) {
	args := m.Called(ctx, token, password, confirmPassword)
	return args.Get(0).(model.User), args.String(1), args.Error(2)
}

// CatalogService is a mock of the catalog service.
type CatalogService struct {
	mock.Mock
}

func NewCatalogService(t testingT) *CatalogService {
	m := &CatalogService{}
	register(t, &m.Mock)
	return m
}

func (m *CatalogService) Items(ctx context.Context, query string, page, perPage int) (model.ItemPage, error) {
	args := m.Called(ctx, query, page, perPage)
	return args.Get(0).(model.ItemPage), args.Error(1)
}

func (m *CatalogService) Item(ctx context.Context, id uuid.UUID) (model.Item, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Item), args.Error(1)
}

func (m *CatalogService) CreateItem(ctx context.Context, p model.Principal, params model.CreateItemParams) (model.Item, error) {
	args := m.Called(ctx, p, params)
	return args.Get(0).(model.Item), args.Error(1)
}

func (m *CatalogService) UpdateItem(ctx context.Context, p model.Principal, id uuid.UUID, patch model.ItemPatch) (model.Item, error) {
	args := m.Called(ctx, p, id, patch)
	return args.Get(0).(model.Item), args.Error(1)
}

func (m *CatalogService) DeleteItem(ctx context.Context, p model.Principal, id uuid.UUID) (model.Item, error) {
	args := m.Called(ctx, p, id)
	return args.Get(0).(model.Item), args.Error(1)
}

func (m *CatalogService) UploadImage(ctx context.Context, p model.Principal, filename, contentType string, size int64, r io.Reader) (string, error) {
	args := m.Called(ctx, p, filename, contentType, size, r)
	return args.String(0), args.Error(1)
}

func (m *CatalogService) Image(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

// CartService is a mock of the cart service.
type CartService struct {
	mock.Mock
}

func NewCartService(t testingT) *CartService {
	m := &CartService{}
	register(t, &m.Mock)
	return m
}

func (m *CartService) AddToCart(ctx context.Context, p model.Principal, itemID uuid.UUID) (model.CartItem, error) {
	args := m.Called(ctx, p, itemID)
	return args.Get(0).(model.CartItem), args.Error(1)
}

func (m *CartService) RemoveFromCart(ctx context.Context, p model.Principal, cartItemID uuid.UUID) (model.CartItem, error) {
	args := m.Called(ctx, p, cartItemID)
	return args.Get(0).(model.CartItem), args.Error(1)
}

func (m *CartService) Lines(ctx context.Context, p model.Principal) ([]model.CartLine, error) {
	args := m.Called(ctx, p)
	lines, _ := args.Get(0).([]model.CartLine)
	return lines, args.Error(1)
}

// CheckoutService is a mock of the checkout pipeline.
type CheckoutService struct {
	mock.Mock
}

func NewCheckoutService(t testingT) *CheckoutService {
	m := &CheckoutService{}
	register(t, &m.Mock)
	return m
}

func (m *CheckoutService) CreateOrder(ctx context.Context, p model.Principal, source string) (model.Order, error) {
	args := m.Called(ctx, p, source)
	return args.Get(0).(model.Order), args.Error(1)
}

// OrderService is a mock of the order reads.
type OrderService struct {
	mock.Mock
}

func NewOrderService(t testingT) *OrderService {
	m := &OrderService{}
	register(t, &m.Mock)
	return m
}

func (m *OrderService) Order(ctx context.Context, p model.Principal, id uuid.UUID) (model.Order, error) {
	args := m.Called(ctx, p, id)
	return args.Get(0).(model.Order), args.Error(1)
}

func (m *OrderService) Orders(ctx context.Context, p model.Principal) ([]model.Order, error) {
	args := m.Called(ctx, p)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

// SessionResolver is a mock of the session resolver.
type SessionResolver struct {
	mock.Mock
}

func NewSessionResolver(t testingT) *SessionResolver {
	m := &SessionResolver{}
	register(t, &m.Mock)
	return m
}

func (m *SessionResolver) Resolve(ctx context.Context, rawToken string) model.Principal {
	args := m.Called(ctx, rawToken)
	return args.Get(0).(model.Principal)
}

// ReconcileService is a mock of the checkout reconciler.
type ReconcileService struct {
	mock.Mock
}

func NewReconcileService(t testingT) *ReconcileService {
	m := &ReconcileService{}
	register(t, &m.Mock)
	return m
}

func (m *ReconcileService) ListStuck(ctx context.Context) ([]model.CheckoutAttempt, error) {
	args := m.Called(ctx)
	attempts, _ := args.Get(0).([]model.CheckoutAttempt)
	return attempts, args.Error(1)
}

func (m *ReconcileService) Replay(ctx context.Context, attemptID uuid.UUID) (model.Order, error) {
	args := m.Called(ctx, attemptID)
	return args.Get(0).(model.Order), args.Error(1)
}

// SecurityLayer is a mock of model.SecurityLayer.
type SecurityLayer struct {
	mock.Mock
}

func NewSecurityLayer(t testingT) *SecurityLayer {
	m := &SecurityLayer{}
	register(t, &m.Mock)
	return m
}

func (m *SecurityLayer) Listen(protocol, addr string) (net.Listener, error) {
	args := m.Called(protocol, addr)
	ln, _ := args.Get(0).(net.Listener)
	return ln, args.Error(1)
}

var _ model.SecurityLayer = (*SecurityLayer)(nil)
