package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/hojin-choi/oreum/internal/domain"
	"github.com/hojin-choi/oreum/internal/payment"
)

// DefaultPageSize is the admin order-list page size.
const DefaultPageSize = 10

// OrderService turns verified payments into immutable order records and
// walks them through the fulfillment state machine.
type OrderService struct {
	logger   *slog.Logger
	orders   OrderStore
	carts    CartStore
	verifier payment.Verifier
	now      func() time.Time
}

// NewOrderService creates the order service.
func NewOrderService(logger *slog.Logger, orders OrderStore, carts CartStore, verifier payment.Verifier) *OrderService {
	return &OrderService{
		logger:   logger,
		orders:   orders,
		carts:    carts,
		verifier: verifier,
		now:      time.Now,
	}
}

// CreateOrderParams is the client's checkout submission.
type CreateOrderParams struct {
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   domain.PaymentMethod   `json:"paymentMethod"`
	PaymentData     *domain.PaymentData    `json:"paymentData"`
}

// CreateOrder validates the submission, verifies payment against the
// gateway, snapshots the user's cart into an order and empties the cart.
//
// Checks run in a fixed sequence so a submission failing several at once
// always reports the same one: shipping fields, payment method, payment
// data, duplicate merchant reference, empty cart, gateway verification,
// amount match. No durable state exists until every check has passed.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, params CreateOrderParams) (*domain.Order, error) {
	const op = "order.create"

	if err := params.ShippingAddress.Validate(); err != nil {
		return nil, err
	}
	if params.PaymentMethod == "" {
		return nil, domain.ErrMissingPaymentMethod
	}
	if !domain.ValidPaymentMethod(params.PaymentMethod) {
		return nil, domain.Errorf(domain.EINVALID, op, "unknown payment method: %s", params.PaymentMethod)
	}
	if params.PaymentData == nil || params.PaymentData.TransactionID == "" || params.PaymentData.MerchantUID == "" {
		return nil, domain.ErrMissingPaymentData
	}

	// Courtesy pre-check. The unique index on merchant_uid is the real
	// guard; a race past this read is caught again at insert.
	if existing, err := s.orders.GetOrderByMerchantUID(ctx, params.PaymentData.MerchantUID); err == nil {
		return nil, &domain.DuplicateOrderError{OrderNumber: existing.OrderNumber}
	} else if !domain.IsCode(err, domain.ENOTFOUND) {
		return nil, err
	}

	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	result, err := s.verifier.Verify(ctx, payment.VerifyParams{
		TransactionID: params.PaymentData.TransactionID,
		MerchantUID:   params.PaymentData.MerchantUID,
		Amount:        cart.TotalAmount,
	})
	if err != nil {
		return nil, domain.Payment(op, "payment verification failed")
	}
	if !result.Verified {
		s.logger.Warn("payment verification rejected",
			slog.String("merchant_uid", params.PaymentData.MerchantUID),
			slog.String("reason", result.Reason))
		return nil, domain.Payment(op, "payment verification failed: "+result.Reason)
	}

	// The verifier checked the gateway's amount against the cart; this
	// checks the client's own claim, catching a cart that changed between
	// payment and submission.
	if params.PaymentData.PaidAmount != cart.TotalAmount {
		return nil, domain.ErrAmountMismatch
	}

	orderNumber, err := s.orders.NextOrderNumber(ctx, s.now())
	if err != nil {
		return nil, domain.Internal(err, op, "failed to allocate order number")
	}

	order := &domain.Order{
		OrderNumber:     orderNumber,
		UserID:          userID,
		ShippingAddress: params.ShippingAddress,
		PaymentMethod:   params.PaymentMethod,
		PaymentStatus:   domain.PaymentPaid,
		PaymentData: domain.PaymentData{
			TransactionID:     params.PaymentData.TransactionID,
			MerchantUID:       params.PaymentData.MerchantUID,
			PaidAmount:        result.Payment.Amount,
			ApplyNum:          result.Payment.ApprovalCode,
			PaymentMethodType: result.Payment.PayMethod,
		},
		OrderStatus: domain.OrderConfirmed,
	}
	for _, item := range cart.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			ProductSKU:  item.ProductSKU,
			Category:    item.Category,
			Image:       item.Image,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}
	order.ComputeTotal()

	created, err := s.orders.InsertOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	// The order exists regardless of cleanup; a stale cart is an
	// inconvenience, a lost order is not.
	if err := s.carts.ClearCart(ctx, userID); err != nil {
		s.logger.Error("failed to clear cart after order creation",
			slog.String("order_number", created.OrderNumber),
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
	}

	s.logger.Info("order created",
		slog.String("order_number", created.OrderNumber),
		slog.String("user_id", userID),
		slog.Int64("total_amount", created.TotalAmount))

	return created, nil
}

// GetOrder returns one order. Customers may only read their own orders;
// admins may read any.
func (s *OrderService) GetOrder(ctx context.Context, user *domain.User, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != user.ID && !user.IsAdmin() {
		return nil, domain.Forbidden("order.get", "access to this order is not allowed")
	}
	return order, nil
}

// ListMyOrders returns the caller's orders, newest first.
func (s *OrderService) ListMyOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.orders.ListOrdersByUser(ctx, userID)
}

// OrderPage is one page of the admin order listing.
type OrderPage struct {
	Orders      []*domain.Order `json:"orders"`
	CurrentPage int             `json:"currentPage"`
	TotalPages  int             `json:"totalPages"`
	TotalOrders int64           `json:"totalOrders"`
}

// ListAllOrders returns one page of every order in the system, newest
// first. Admin only. Pages are 1-based; out-of-range pages return an empty
// page, not an error.
func (s *OrderService) ListAllOrders(ctx context.Context, user *domain.User, page int) (*OrderPage, error) {
	const op = "order.list_all"

	if !user.IsAdmin() {
		return nil, domain.Forbidden(op, "admin access required")
	}
	if page < 1 {
		page = 1
	}

	orders, total, err := s.orders.ListAllOrders(ctx, DefaultPageSize, (page-1)*DefaultPageSize)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + DefaultPageSize - 1) / DefaultPageSize)
	if orders == nil {
		orders = []*domain.Order{}
	}

	return &OrderPage{
		Orders:      orders,
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalOrders: total,
	}, nil
}

// UpdateOrderStatus moves an order forward through fulfillment. Admin only.
// The status may advance any number of steps but never retreat, and
// cancellation must go through CancelOrder.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, user *domain.User, orderID string, next domain.OrderStatus) (*domain.Order, error) {
	const op = "order.update_status"

	if !user.IsAdmin() {
		return nil, domain.Forbidden(op, "admin access required")
	}
	if !domain.ValidOrderStatus(next) {
		return nil, domain.Errorf(domain.EINVALID, op, "unknown order status: %s", next)
	}
	if next == domain.OrderCancelled {
		return nil, domain.Invalid(op, "use the cancel operation to cancel an order")
	}

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransitionOrderStatus(order.OrderStatus, next) {
		return nil, domain.Errorf(domain.EINVALID, op,
			"cannot move order from %s to %s", order.OrderStatus, next)
	}

	updated, err := s.orders.UpdateStatuses(ctx, orderID, next, order.PaymentStatus)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status updated",
		slog.String("order_number", updated.OrderNumber),
		slog.String("from", string(order.OrderStatus)),
		slog.String("to", string(next)))

	return updated, nil
}

// UpdatePaymentStatus sets an order's payment status. The order's owner or
// an admin may call it; intended for out-of-band settlement corrections
// (chargebacks, late captures).
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, user *domain.User, orderID string, next domain.PaymentStatus) (*domain.Order, error) {
	const op = "order.update_payment_status"

	if !domain.ValidPaymentStatus(next) {
		return nil, domain.Errorf(domain.EINVALID, op, "unknown payment status: %s", next)
	}

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != user.ID && !user.IsAdmin() {
		return nil, domain.Forbidden(op, "access to this order is not allowed")
	}

	updated, err := s.orders.UpdateStatuses(ctx, orderID, order.OrderStatus, next)
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment status updated",
		slog.String("order_number", updated.OrderNumber),
		slog.String("from", string(order.PaymentStatus)),
		slog.String("to", string(next)))

	return updated, nil
}

// CancelOrder cancels an order on behalf of its owner. Orders that have
// entered shipping can no longer be cancelled, and a second attempt reports
// the order as already cancelled.
func (s *OrderService) CancelOrder(ctx context.Context, user *domain.User, orderID string) (*domain.Order, error) {
	const op = "order.cancel"

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != user.ID {
		return nil, domain.Forbidden(op, "only the order owner can cancel")
	}

	if order.OrderStatus == domain.OrderCancelled {
		return nil, domain.ErrAlreadyCancelled
	}
	if !domain.CanCancel(order.OrderStatus) {
		return nil, domain.ErrShippingStarted
	}

	updated, err := s.orders.UpdateStatuses(ctx, orderID, domain.OrderCancelled, domain.PaymentCancelled)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order cancelled",
		slog.String("order_number", updated.OrderNumber),
		slog.String("user_id", user.ID))

	return updated, nil
}
