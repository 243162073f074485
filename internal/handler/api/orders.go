package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hojin-choi/oreum/internal/domain"
	"github.com/hojin-choi/oreum/internal/middleware"
	"github.com/hojin-choi/oreum/internal/service"
)

// OrderHandler serves the order endpoints. All routes sit behind the
// authentication middleware, so UserFrom always yields a user.
type OrderHandler struct {
	logger *slog.Logger
	orders *service.OrderService
}

// NewOrderHandler creates the order handler.
func NewOrderHandler(logger *slog.Logger, orders *service.OrderService) *OrderHandler {
	return &OrderHandler{logger: logger, orders: orders}
}

// Create handles POST /api/orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	var params service.CreateOrderParams
	if err := decode(r, &params); err != nil {
		respondError(w, h.logger, err)
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), user.ID, params)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respond(w, http.StatusCreated, order)
}

// ListMine handles GET /api/orders/my.
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	orders, err := h.orders.ListMyOrders(r.Context(), user.ID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}

	respond(w, http.StatusOK, map[string]any{"orders": orders})
}

// ListAll handles GET /api/orders/all?page=N.
func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, h.logger, domain.Invalid("order.list_all", "page must be a positive integer"))
			return
		}
		page = n
	}

	result, err := h.orders.ListAllOrders(r.Context(), user, page)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respond(w, http.StatusOK, result)
}

// Get handles GET /api/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	order, err := h.orders.GetOrder(r.Context(), user, r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respond(w, http.StatusOK, order)
}

// UpdateStatus handles PUT /api/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	var body struct {
		Status domain.OrderStatus `json:"status"`
	}
	if err := decode(r, &body); err != nil {
		respondError(w, h.logger, err)
		return
	}

	order, err := h.orders.UpdateOrderStatus(r.Context(), user, r.PathValue("id"), body.Status)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respond(w, http.StatusOK, order)
}

// UpdatePaymentStatus handles PUT /api/orders/{id}/payment-status.
func (h *OrderHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	var body struct {
		PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
	}
	if err := decode(r, &body); err != nil {
		respondError(w, h.logger, err)
		return
	}

	order, err := h.orders.UpdatePaymentStatus(r.Context(), user, r.PathValue("id"), body.PaymentStatus)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respond(w, http.StatusOK, order)
}

// Cancel handles PUT /api/orders/{id}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	order, err := h.orders.CancelOrder(r.Context(), user, r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respond(w, http.StatusOK, order)
}
