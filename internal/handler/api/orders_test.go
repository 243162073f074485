package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hojin-choi/oreum/internal/domain"
	"github.com/hojin-choi/oreum/internal/middleware"
	"github.com/hojin-choi/oreum/internal/payment"
	"github.com/hojin-choi/oreum/internal/service"
)

func TestStatusForCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusForCode(domain.EINVALID))
	assert.Equal(t, http.StatusBadRequest, statusForCode(domain.ECONFLICT))
	assert.Equal(t, http.StatusBadRequest, statusForCode(domain.EPAYMENT))
	assert.Equal(t, http.StatusUnauthorized, statusForCode(domain.EUNAUTHORIZED))
	assert.Equal(t, http.StatusForbidden, statusForCode(domain.EFORBIDDEN))
	assert.Equal(t, http.StatusNotFound, statusForCode(domain.ENOTFOUND))
	assert.Equal(t, http.StatusInternalServerError, statusForCode(domain.EINTERNAL))
	assert.Equal(t, http.StatusInternalServerError, statusForCode("anything else"))
}

func TestRespondErrorDuplicateOrder(t *testing.T) {
	rec := httptest.NewRecorder()

	respondError(rec, testLogger(), &domain.DuplicateOrderError{OrderNumber: "ORD-20260307-003"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "order already processed", body.Error)
	assert.Equal(t, "ORD-20260307-003", body.OrderNumber)
}

func TestRespondErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()

	respondError(rec, testLogger(), domain.Internal(errors.New("pq: relation orders does not exist"), "order.get", "failed to get order"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "relation orders")
}

// stubOrderStore backs a real OrderService for handler tests.
type stubOrderStore struct {
	insertErr error
}

func (s *stubOrderStore) NextOrderNumber(ctx context.Context, day time.Time) (string, error) {
	return domain.FormatOrderNumber(day, 1), nil
}

func (s *stubOrderStore) InsertOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	order.ID = "order-1"
	return order, nil
}

func (s *stubOrderStore) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return nil, domain.NotFound("order.get", "order", orderID)
}

func (s *stubOrderStore) GetOrderByMerchantUID(ctx context.Context, merchantUID string) (*domain.Order, error) {
	return nil, domain.NotFound("order.get_by_merchant_uid", "order", merchantUID)
}

func (s *stubOrderStore) ListOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	return nil, nil
}

func (s *stubOrderStore) ListAllOrders(ctx context.Context, limit, offset int) ([]*domain.Order, int64, error) {
	return nil, 0, nil
}

func (s *stubOrderStore) UpdateStatuses(ctx context.Context, orderID string, os domain.OrderStatus, ps domain.PaymentStatus) (*domain.Order, error) {
	return nil, domain.NotFound("order.update_status", "order", orderID)
}

type stubCartStore struct {
	cart *domain.Cart
}

func (s *stubCartStore) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if s.cart != nil {
		return s.cart, nil
	}
	return &domain.Cart{ID: "cart-1", UserID: userID}, nil
}

func (s *stubCartStore) ClearCart(ctx context.Context, userID string) error { return nil }

func (s *stubCartStore) AddCartItem(ctx context.Context, userID, productID string, quantity int32) error {
	return nil
}

func (s *stubCartStore) RemoveCartItem(ctx context.Context, userID, productID string) error {
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newOrderHandler(orders *stubOrderStore, carts *stubCartStore) *OrderHandler {
	svc := service.NewOrderService(testLogger(), orders, carts, payment.NewMockVerifier())
	return NewOrderHandler(testLogger(), svc)
}

// withTestUser mimics the auth middleware's context injection.
func withTestUser(r *http.Request, user *domain.User) *http.Request {
	return r.WithContext(middleware.ContextWithUser(r.Context(), user))
}

func TestOrderHandlerCreate(t *testing.T) {
	cart := &domain.Cart{
		ID:     "cart-1",
		UserID: "user-1",
		Items: []domain.CartItem{
			{ProductID: "prod-1", ProductName: "Drip Kettle", Quantity: 1, Price: 12000},
		},
	}
	cart.ComputeTotals()

	h := newOrderHandler(&stubOrderStore{}, &stubCartStore{cart: cart})

	body, _ := json.Marshal(map[string]any{
		"shippingAddress": map[string]string{
			"recipient": "Kim Minji",
			"phone":     "010-1234-5678",
			"address":   "123 Teheran-ro",
		},
		"paymentMethod": "card",
		"paymentData": map[string]any{
			"imp_uid":      "imp_001",
			"merchant_uid": "mid_001",
			"paid_amount":  12000,
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(body))
	req = withTestUser(req, &domain.User{ID: "user-1", Role: domain.RoleCustomer})
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var created domain.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "order-1", created.ID)
	assert.Equal(t, domain.OrderConfirmed, created.OrderStatus)
	assert.Equal(t, int64(12000), created.TotalAmount)
}

func TestOrderHandlerCreateConflict(t *testing.T) {
	cart := &domain.Cart{
		ID:     "cart-1",
		UserID: "user-1",
		Items:  []domain.CartItem{{ProductID: "prod-1", Quantity: 1, Price: 12000}},
	}
	cart.ComputeTotals()

	h := newOrderHandler(
		&stubOrderStore{insertErr: &domain.DuplicateOrderError{OrderNumber: "ORD-20260307-002"}},
		&stubCartStore{cart: cart},
	)

	body, _ := json.Marshal(map[string]any{
		"shippingAddress": map[string]string{
			"recipient": "Kim Minji",
			"phone":     "010-1234-5678",
			"address":   "123 Teheran-ro",
		},
		"paymentMethod": "card",
		"paymentData": map[string]any{
			"imp_uid":      "imp_001",
			"merchant_uid": "mid_001",
			"paid_amount":  12000,
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(body))
	req = withTestUser(req, &domain.User{ID: "user-1", Role: domain.RoleCustomer})
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "ORD-20260307-002", errResp.OrderNumber)
}

func TestOrderHandlerCreateBadBody(t *testing.T) {
	h := newOrderHandler(&stubOrderStore{}, &stubCartStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader([]byte("{not json")))
	req = withTestUser(req, &domain.User{ID: "user-1", Role: domain.RoleCustomer})
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderHandlerListMineEmpty(t *testing.T) {
	h := newOrderHandler(&stubOrderStore{}, &stubCartStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/orders/my", nil)
	req = withTestUser(req, &domain.User{ID: "user-1", Role: domain.RoleCustomer})
	rec := httptest.NewRecorder()

	h.ListMine(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	// An empty list serializes as [], never null.
	assert.JSONEq(t, `{"orders":[]}`, rec.Body.String())
}

func TestOrderHandlerListAllBadPage(t *testing.T) {
	h := newOrderHandler(&stubOrderStore{}, &stubCartStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/orders/all?page=zero", nil)
	req = withTestUser(req, &domain.User{ID: "admin", Role: domain.RoleAdmin})
	rec := httptest.NewRecorder()

	h.ListAll(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
