package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hojin-choi/oreum/internal/domain"
	"github.com/hojin-choi/oreum/internal/service"
)

// OrderStore implements service.OrderStore using PostgreSQL.
//
// Duplicate-submission safety does not rely on application-level
// check-then-insert: the unique index on merchant_uid makes the insert
// itself the arbiter, and a violation surfaces as the duplicate-order
// conflict carrying the winning order's number.
type OrderStore struct {
	pool *pgxpool.Pool
}

// Compile-time check that OrderStore implements service.OrderStore.
var _ service.OrderStore = (*OrderStore)(nil)

// NewOrderStore creates a PostgreSQL-backed order store.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

const orderColumns = `
	o.id, o.order_number, o.user_id, u.name, u.email, o.total_amount,
	o.recipient, o.phone, o.address, o.detail_address, o.zip_code, o.delivery_request,
	o.payment_method, o.payment_status,
	o.transaction_id, o.merchant_uid, o.paid_amount, o.apply_num, o.payment_method_type,
	o.order_status, o.created_at, o.updated_at`

// NextOrderNumber allocates the next daily sequence for day and formats the
// order number. The counter row is advanced with an atomic upsert, so two
// concurrent creations on the same day can never receive the same number.
func (s *OrderStore) NextOrderNumber(ctx context.Context, day time.Time) (string, error) {
	var seq int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO order_counters (day, seq) VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET seq = order_counters.seq + 1
		RETURNING seq`,
		day.Format("2006-01-02"),
	).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("failed to advance order counter: %w", err)
	}

	return domain.FormatOrderNumber(day, seq), nil
}

// InsertOrder persists the order and its item snapshot in one transaction.
// A merchant_uid unique violation comes back as DuplicateOrderError with the
// existing order's number; an order_number collision (counter reset, clock
// skew) is wrapped as a retryable internal error.
func (s *OrderStore) InsertOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO orders (
				order_number, user_id, total_amount,
				recipient, phone, address, detail_address, zip_code, delivery_request,
				payment_method, payment_status,
				transaction_id, merchant_uid, paid_amount, apply_num, payment_method_type,
				order_status
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
			RETURNING id, created_at, updated_at`,
			order.OrderNumber, order.UserID, order.TotalAmount,
			order.ShippingAddress.Recipient, order.ShippingAddress.Phone, order.ShippingAddress.Address,
			order.ShippingAddress.DetailAddress, order.ShippingAddress.ZipCode, order.ShippingAddress.DeliveryRequest,
			string(order.PaymentMethod), string(order.PaymentStatus),
			order.PaymentData.TransactionID, order.PaymentData.MerchantUID, order.PaymentData.PaidAmount,
			order.PaymentData.ApplyNum, order.PaymentData.PaymentMethodType,
			string(order.OrderStatus),
		)
		if err := row.Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
			if isUniqueViolation(err, "orders_merchant_uid_key") {
				existing, lookupErr := s.orderNumberByMerchantUID(ctx, order.PaymentData.MerchantUID)
				if lookupErr != nil {
					return domain.Internal(lookupErr, "order.insert", "failed to resolve duplicate order")
				}
				return &domain.DuplicateOrderError{OrderNumber: existing}
			}
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for _, item := range order.Items {
			_, err := tx.Exec(ctx, `
				INSERT INTO order_items (order_id, product_id, product_name, product_sku, category, image, quantity, price)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
				order.ID, item.ProductID, item.ProductName, item.ProductSKU,
				item.Category, item.Image, item.Quantity, item.Price,
			)
			if err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		var dup *domain.DuplicateOrderError
		if errors.As(err, &dup) {
			return nil, dup
		}
		var derr *domain.Error
		if errors.As(err, &derr) {
			return nil, err
		}
		return nil, domain.Internal(err, "order.insert", "failed to save order")
	}

	return s.GetOrder(ctx, order.ID)
}

// GetOrder retrieves one order with its items and resolved user fields.
func (s *OrderStore) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT`+orderColumns+`
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.id = $1`,
		orderID,
	)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("order.get", "order", orderID)
		}
		return nil, domain.Internal(err, "order.get", "failed to get order")
	}

	if err := s.loadItems(ctx, order); err != nil {
		return nil, domain.Internal(err, "order.get", "failed to load order items")
	}

	return order, nil
}

// GetOrderByMerchantUID retrieves the order created under a merchant
// reference, if any.
func (s *OrderStore) GetOrderByMerchantUID(ctx context.Context, merchantUID string) (*domain.Order, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT`+orderColumns+`
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.merchant_uid = $1`,
		merchantUID,
	)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("order.get_by_merchant_uid", "order", merchantUID)
		}
		return nil, domain.Internal(err, "order.get_by_merchant_uid", "failed to get order")
	}

	if err := s.loadItems(ctx, order); err != nil {
		return nil, domain.Internal(err, "order.get_by_merchant_uid", "failed to load order items")
	}

	return order, nil
}

// ListOrdersByUser returns all orders owned by userID, newest first.
func (s *OrderStore) ListOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT`+orderColumns+`
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, domain.Internal(err, "order.list", "failed to list orders")
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, domain.Internal(err, "order.list", "failed to scan orders")
	}

	for _, order := range orders {
		if err := s.loadItems(ctx, order); err != nil {
			return nil, domain.Internal(err, "order.list", "failed to load order items")
		}
	}

	return orders, nil
}

// ListAllOrders returns one page of all orders, newest first, plus the total
// order count.
func (s *OrderStore) ListAllOrders(ctx context.Context, limit, offset int) ([]*domain.Order, int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT`+orderColumns+`
		FROM orders o
		JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, domain.Internal(err, "order.list_all", "failed to list orders")
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, 0, domain.Internal(err, "order.list_all", "failed to scan orders")
	}

	for _, order := range orders {
		if err := s.loadItems(ctx, order); err != nil {
			return nil, 0, domain.Internal(err, "order.list_all", "failed to load order items")
		}
	}

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM orders`).Scan(&total); err != nil {
		return nil, 0, domain.Internal(err, "order.list_all", "failed to count orders")
	}

	return orders, total, nil
}

// UpdateStatuses persists new order/payment statuses for an order.
func (s *OrderStore) UpdateStatuses(ctx context.Context, orderID string, orderStatus domain.OrderStatus, paymentStatus domain.PaymentStatus) (*domain.Order, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET order_status = $2, payment_status = $3, updated_at = now()
		WHERE id = $1`,
		orderID, string(orderStatus), string(paymentStatus),
	)
	if err != nil {
		return nil, domain.Internal(err, "order.update_status", "failed to update order status")
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.NotFound("order.update_status", "order", orderID)
	}

	return s.GetOrder(ctx, orderID)
}

// orderNumberByMerchantUID resolves the order number owning a merchant
// reference. Used to build the idempotent-conflict response.
func (s *OrderStore) orderNumberByMerchantUID(ctx context.Context, merchantUID string) (string, error) {
	var number string
	err := s.pool.QueryRow(ctx,
		`SELECT order_number FROM orders WHERE merchant_uid = $1`,
		merchantUID,
	).Scan(&number)
	return number, err
}

// loadItems attaches the item snapshot to an order.
func (s *OrderStore) loadItems(ctx context.Context, order *domain.Order) error {
	rows, err := s.pool.Query(ctx, `
		SELECT product_id, product_name, product_sku, category, image, quantity, price
		FROM order_items
		WHERE order_id = $1`,
		order.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	order.Items = order.Items[:0]
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.ProductSKU,
			&item.Category, &item.Image, &item.Quantity, &item.Price); err != nil {
			return err
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var method, payStatus, status string
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.UserName, &o.UserEmail, &o.TotalAmount,
		&o.ShippingAddress.Recipient, &o.ShippingAddress.Phone, &o.ShippingAddress.Address,
		&o.ShippingAddress.DetailAddress, &o.ShippingAddress.ZipCode, &o.ShippingAddress.DeliveryRequest,
		&method, &payStatus,
		&o.PaymentData.TransactionID, &o.PaymentData.MerchantUID, &o.PaymentData.PaidAmount,
		&o.PaymentData.ApplyNum, &o.PaymentData.PaymentMethodType,
		&status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.PaymentMethod = domain.PaymentMethod(method)
	o.PaymentStatus = domain.PaymentStatus(payStatus)
	o.OrderStatus = domain.OrderStatus(status)
	return &o, nil
}

func scanOrders(rows pgx.Rows) ([]*domain.Order, error) {
	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}
