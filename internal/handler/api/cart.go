package api

import (
	"log/slog"
	"net/http"

	"github.com/hojin-choi/oreum/internal/middleware"
	"github.com/hojin-choi/oreum/internal/service"
)

// CartHandler serves the cart endpoints.
type CartHandler struct {
	logger *slog.Logger
	carts  *service.CartService
}

// NewCartHandler creates the cart handler.
func NewCartHandler(logger *slog.Logger, carts *service.CartService) *CartHandler {
	return &CartHandler{logger: logger, carts: carts}
}

// Get handles GET /api/cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	cart, err := h.carts.GetCart(r.Context(), user.ID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respond(w, http.StatusOK, cart)
}

// AddItem handles POST /api/cart/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	var body struct {
		ProductID string `json:"productId"`
		Quantity  int32  `json:"quantity"`
	}
	if err := decode(r, &body); err != nil {
		respondError(w, h.logger, err)
		return
	}

	cart, err := h.carts.AddItem(r.Context(), user.ID, body.ProductID, body.Quantity)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respond(w, http.StatusOK, cart)
}

// RemoveItem handles DELETE /api/cart/items/{productId}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	cart, err := h.carts.RemoveItem(r.Context(), user.ID, r.PathValue("productId"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respond(w, http.StatusOK, cart)
}

// Clear handles DELETE /api/cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	if err := h.carts.Clear(r.Context(), user.ID); err != nil {
		respondError(w, h.logger, err)
		return
	}

	respond(w, http.StatusNoContent, nil)
}
