package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hojin-choi/oreum/internal/domain"
	"github.com/hojin-choi/oreum/internal/service"
)

// CartStore implements service.CartStore using PostgreSQL.
type CartStore struct {
	pool *pgxpool.Pool
}

var _ service.CartStore = (*CartStore)(nil)

// NewCartStore creates a PostgreSQL-backed cart store.
func NewCartStore(pool *pgxpool.Pool) *CartStore {
	return &CartStore{pool: pool}
}

// GetCart returns the user's cart with product fields resolved and totals
// computed. A user with no cart row yet gets one created empty, so callers
// never see a missing cart.
func (s *CartStore) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, "cart.get", "failed to get cart")
	}

	rows, err := s.pool.Query(ctx, `
		SELECT ci.product_id, p.name, p.sku, p.category, p.image, ci.quantity, ci.price
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at`,
		cart.ID,
	)
	if err != nil {
		return nil, domain.Internal(err, "cart.get", "failed to load cart items")
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.ProductSKU,
			&item.Category, &item.Image, &item.Quantity, &item.Price); err != nil {
			return nil, domain.Internal(err, "cart.get", "failed to scan cart item")
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "cart.get", "failed to read cart items")
	}

	cart.ComputeTotals()
	return cart, nil
}

// ClearCart removes every item from the user's cart. The cart row itself
// stays, ready for the next shopping session. Clearing an absent cart is a
// no-op.
func (s *CartStore) ClearCart(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM cart_items
		WHERE cart_id IN (SELECT id FROM carts WHERE user_id = $1)`,
		userID,
	)
	if err != nil {
		return domain.Internal(err, "cart.clear", "failed to clear cart")
	}
	return nil
}

// AddCartItem upserts a cart line for the product. The captured unit price
// comes from the catalog row; an existing line for the same product gains
// quantity and re-captures the current price.
func (s *CartStore) AddCartItem(ctx context.Context, userID, productID string, quantity int32) error {
	cart, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return domain.Internal(err, "cart.add_item", "failed to get cart")
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity, price)
		SELECT $1, p.id, $3, p.price FROM products p WHERE p.id = $2
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity,
		              price = EXCLUDED.price`,
		cart.ID, productID, quantity,
	)
	if err != nil {
		return domain.Internal(err, "cart.add_item", "failed to add cart item")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("cart.add_item", "product", productID)
	}
	return nil
}

// RemoveCartItem drops the product's line from the user's cart. Removing an
// absent line is a no-op.
func (s *CartStore) RemoveCartItem(ctx context.Context, userID, productID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM cart_items
		WHERE product_id = $2
		  AND cart_id IN (SELECT id FROM carts WHERE user_id = $1)`,
		userID, productID,
	)
	if err != nil {
		return domain.Internal(err, "cart.remove_item", "failed to remove cart item")
	}
	return nil
}

// getOrCreate fetches the user's cart row, creating one if this is the
// user's first visit. The unique constraint on user_id resolves the race
// between two first visits; the loser re-reads the winner's row.
func (s *CartStore) getOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.getByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO carts (user_id) VALUES ($1)
		RETURNING id, user_id, created_at, updated_at`,
		userID,
	)
	cart = &domain.Cart{}
	if err := row.Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt); err != nil {
		if isUniqueViolation(err, "carts_user_id_key") {
			return s.getByUser(ctx, userID)
		}
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return cart, nil
}

func (s *CartStore) getByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, created_at, updated_at
		FROM carts
		WHERE user_id = $1`,
		userID,
	)
	cart := &domain.Cart{}
	if err := row.Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt); err != nil {
		return nil, err
	}
	return cart, nil
}
