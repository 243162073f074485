package service

import (
	"context"
	"log/slog"

	"github.com/hojin-choi/oreum/internal/domain"
)

// CartService manages the per-user cart that checkout snapshots from.
type CartService struct {
	logger *slog.Logger
	carts  CartStore
}

// NewCartService creates the cart service.
func NewCartService(logger *slog.Logger, carts CartStore) *CartService {
	return &CartService{logger: logger, carts: carts}
}

// GetCart returns the caller's cart, created empty on first access.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.carts.GetCart(ctx, userID)
}

// AddItem puts quantity of a product in the caller's cart.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int32) (*domain.Cart, error) {
	const op = "cart.add_item"

	if productID == "" {
		return nil, domain.Invalid(op, "product id is required")
	}
	if quantity < 1 {
		return nil, domain.Invalid(op, "quantity must be at least 1")
	}

	if err := s.carts.AddCartItem(ctx, userID, productID, quantity); err != nil {
		return nil, err
	}
	return s.carts.GetCart(ctx, userID)
}

// RemoveItem drops a product from the caller's cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	if err := s.carts.RemoveCartItem(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.carts.GetCart(ctx, userID)
}

// Clear empties the caller's cart.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	return s.carts.ClearCart(ctx, userID)
}
