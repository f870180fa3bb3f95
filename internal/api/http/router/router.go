package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dtroode/sickfits-server/internal/api/http/handler"
	"github.com/dtroode/sickfits-server/internal/api/http/middleware"
	"github.com/dtroode/sickfits-server/internal/logger"
	"github.com/dtroode/sickfits-server/internal/model"
)

const apiPrefix = "/api/v1"

// Params holds the dependencies of the public API.
type Params struct {
	Auth           *handler.Auth
	Catalog        *handler.Catalog
	Cart           *handler.Cart
	Health         *handler.Health
	Sessions       middleware.SessionResolver
	ContextManager model.ContextManager
	Observer       middleware.RequestObserver
	MetricsHandler http.Handler
	RateLimit      *middleware.RateLimit
	FrontendURL    string
	Logger         *logger.Logger
}

// Router wires the public HTTP API.
type Router struct {
	p Params
}

func New(p Params) *Router {
	return &Router{p: p}
}

// Register builds the handler tree.
func (r *Router) Register() http.Handler {
	root := mux.NewRouter()
	root.Use(
		middleware.NewRecovery(r.p.Logger).Handle,
		middleware.NewLogging(r.p.Logger).Handle,
		middleware.NewMetrics(r.p.Observer).Handle,
	)

	root.HandleFunc("/healthz", r.p.Health.Check).Methods(http.MethodGet)
	root.Handle("/metrics", r.p.MetricsHandler).Methods(http.MethodGet)

	api := root.PathPrefix(apiPrefix).Subrouter()
	api.Use(middleware.NewAuthenticate(r.p.Sessions, r.p.ContextManager).Handle)

	r.registerAuthRoutes(api)
	r.registerCatalogRoutes(api)
	r.registerCartRoutes(api)

	return middleware.NewCORS(r.p.FrontendURL).Handle(root)
}

func (r *Router) registerAuthRoutes(api *mux.Router) {
	h := r.p.Auth
	limited := r.p.RateLimit.Handle

	api.HandleFunc("/signup", h.Signup).Methods(http.MethodPost)
	api.Handle("/signin", limited(http.HandlerFunc(h.Signin))).Methods(http.MethodPost)
	api.HandleFunc("/signout", h.Signout).Methods(http.MethodPost)
	api.Handle("/reset/request", limited(http.HandlerFunc(h.RequestReset))).Methods(http.MethodPost)
	api.Handle("/reset", limited(http.HandlerFunc(h.ResetPassword))).Methods(http.MethodPost)
	api.HandleFunc("/me", h.Me).Methods(http.MethodGet)
	api.HandleFunc("/users", h.Users).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/permissions", h.UpdatePermissions).Methods(http.MethodPut)
}

func (r *Router) registerCatalogRoutes(api *mux.Router) {
	h := r.p.Catalog

	api.HandleFunc("/items", h.Items).Methods(http.MethodGet)
	api.HandleFunc("/items", h.CreateItem).Methods(http.MethodPost)
	api.HandleFunc("/items/{id}", h.Item).Methods(http.MethodGet)
	api.HandleFunc("/items/{id}", h.UpdateItem).Methods(http.MethodPatch)
	api.HandleFunc("/items/{id}", h.DeleteItem).Methods(http.MethodDelete)
	api.HandleFunc("/uploads", h.Upload).Methods(http.MethodPost)
	api.HandleFunc("/images/{key:.+}", h.Image).Methods(http.MethodGet)
}

func (r *Router) registerCartRoutes(api *mux.Router) {
	h := r.p.Cart

	api.HandleFunc("/cart", h.Lines).Methods(http.MethodGet)
	api.HandleFunc("/cart", h.AddToCart).Methods(http.MethodPost)
	api.HandleFunc("/cart/{id}", h.RemoveFromCart).Methods(http.MethodDelete)
	api.HandleFunc("/orders", h.CreateOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders", h.Orders).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", h.Order).Methods(http.MethodGet)
}
