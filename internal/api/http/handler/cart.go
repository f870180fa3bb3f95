package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/dtroode/sickfits-server/internal/logger"
	"github.com/dtroode/sickfits-server/internal/model"
)

// Cart handles cart and checkout endpoints.
type Cart struct {
	cartService     CartService
	checkoutService CheckoutService
	orderService    OrderService
	contextManager  model.ContextManager
	logger          *logger.Logger
}

func NewCart(cartService CartService, checkoutService CheckoutService, orderService OrderService, contextManager model.ContextManager, logger *logger.Logger) *Cart {
	return &Cart{
		cartService:     cartService,
		checkoutService: checkoutService,
		orderService:    orderService,
		contextManager:  contextManager,
		logger:          logger,
	}
}

type addToCartRequest struct {
	ItemID uuid.UUID `json:"itemId"`
}

type createOrderRequest struct {
	Token string `json:"token"`
}

// Lines handles GET /cart.
func (h *Cart) Lines(w http.ResponseWriter, r *http.Request) {
	p := h.contextManager.PrincipalFromContext(r.Context())

	lines, err := h.cartService.Lines(r.Context(), p)
	if err != nil {
		handleError(w, h.logger, "Cart handler: cart", err)
		return
	}

	resp := make([]cartItemResponse, 0, len(lines))
	for _, l := range lines {
		resp = append(resp, toCartLine(l))
	}
	writeJSON(w, http.StatusOK, resp)
}

// AddToCart handles POST /cart.
func (h *Cart) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ItemID == uuid.Nil {
		writeErr(w, http.StatusBadRequest, "itemId is required")
		return
	}

	p := h.contextManager.PrincipalFromContext(r.Context())
	ci, err := h.cartService.AddToCart(r.Context(), p, req.ItemID)
	if err != nil {
		handleError(w, h.logger, "Cart handler: add to cart", err)
		return
	}
	writeJSON(w, http.StatusOK, toCartItem(ci))
}

// RemoveFromCart handles DELETE /cart/{id}.
func (h *Cart) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	p := h.contextManager.PrincipalFromContext(r.Context())
	ci, err := h.cartService.RemoveFromCart(r.Context(), p, id)
	if err != nil {
		handleError(w, h.logger, "Cart handler: remove from cart", err)
		return
	}
	writeJSON(w, http.StatusOK, toCartItem(ci))
}

// CreateOrder handles POST /orders. The body carries only the payment token.
func (h *Cart) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p := h.contextManager.PrincipalFromContext(r.Context())
	order, err := h.checkoutService.CreateOrder(r.Context(), p, req.Token)
	if err != nil {
		handleError(w, h.logger, "Cart handler: create order", err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrder(order))
}

// Orders handles GET /orders.
func (h *Cart) Orders(w http.ResponseWriter, r *http.Request) {
	p := h.contextManager.PrincipalFromContext(r.Context())

	orders, err := h.orderService.Orders(r.Context(), p)
	if err != nil {
		handleError(w, h.logger, "Cart handler: orders", err)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrder(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Order handles GET /orders/{id}.
func (h *Cart) Order(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	p := h.contextManager.PrincipalFromContext(r.Context())
	order, err := h.orderService.Order(r.Context(), p, id)
	if err != nil {
		handleError(w, h.logger, "Cart handler: order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrder(order))
}
