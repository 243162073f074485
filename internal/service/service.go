// Package service implements the business rules of the storefront on top of
// storage and payment-gateway interfaces. Services validate, authorize and
// orchestrate; stores persist; the verifier talks to the gateway.
package service

import (
	"context"
	"time"

	"github.com/hojin-choi/oreum/internal/domain"
)

// OrderStore is the persistence surface the order service depends on.
type OrderStore interface {
	// NextOrderNumber allocates the next daily order number for day.
	NextOrderNumber(ctx context.Context, day time.Time) (string, error)

	// InsertOrder saves the order and its items atomically. A merchant
	// reference that already produced an order comes back as
	// *domain.DuplicateOrderError carrying the existing order number.
	InsertOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)

	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	GetOrderByMerchantUID(ctx context.Context, merchantUID string) (*domain.Order, error)

	// ListOrdersByUser returns the user's orders, newest first.
	ListOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error)

	// ListAllOrders returns one page of all orders, newest first, and the
	// total count.
	ListAllOrders(ctx context.Context, limit, offset int) ([]*domain.Order, int64, error)

	// UpdateStatuses persists new order and payment statuses.
	UpdateStatuses(ctx context.Context, orderID string, orderStatus domain.OrderStatus, paymentStatus domain.PaymentStatus) (*domain.Order, error)
}

// CartStore is the cart surface the order service depends on.
type CartStore interface {
	// GetCart returns the user's cart with resolved product fields and
	// computed totals, creating an empty cart on first access.
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)

	// ClearCart empties the user's cart.
	ClearCart(ctx context.Context, userID string) error

	// AddCartItem puts quantity of a product in the cart, merging with an
	// existing line for the same product. The unit price is captured from
	// the catalog at add time.
	AddCartItem(ctx context.Context, userID, productID string, quantity int32) error

	// RemoveCartItem drops a product's line from the cart.
	RemoveCartItem(ctx context.Context, userID, productID string) error
}

// UserStore is the user surface the auth service depends on.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
}
