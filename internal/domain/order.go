package domain

import (
	"fmt"
	"time"
)

// OrderStatus is the fulfillment state of an order.
// The happy path is a strict linear progression; cancelled is a terminal
// side exit reachable only while shipping has not started.
type OrderStatus string

const (
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderShipped   OrderStatus = "shipped"
	OrderInTransit OrderStatus = "in_transit"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// orderStatusRank orders the forward progression. Cancelled is outside the
// progression and handled separately.
var orderStatusRank = map[OrderStatus]int{
	OrderConfirmed: 0,
	OrderPreparing: 1,
	OrderShipped:   2,
	OrderInTransit: 3,
	OrderDelivered: 4,
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s OrderStatus) bool {
	_, ok := orderStatusRank[s]
	return ok || s == OrderCancelled
}

// CanTransitionOrderStatus reports whether an admin status update from
// current to next is legal. Forward moves (any number of steps) are allowed;
// backward moves are not. Cancelled is terminal, and cancellation itself goes
// through CanCancel rather than this check.
func CanTransitionOrderStatus(current, next OrderStatus) bool {
	if current == OrderCancelled {
		return false
	}
	if next == OrderCancelled {
		return CanCancel(current)
	}
	cr, ok := orderStatusRank[current]
	if !ok {
		return false
	}
	nr, ok := orderStatusRank[next]
	if !ok {
		return false
	}
	return nr >= cr
}

// CanCancel reports whether an order in the given status may be cancelled.
// Once shipping has started (shipped or later) cancellation is permanently
// forbidden, and a cancelled order cannot be cancelled again.
func CanCancel(current OrderStatus) bool {
	switch current {
	case OrderConfirmed, OrderPreparing:
		return true
	default:
		return false
	}
}

// PaymentStatus is the settlement state of an order's payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentCancelled:
		return true
	}
	return false
}

// PaymentMethod is the customer-selected payment instrument.
type PaymentMethod string

const (
	MethodCard         PaymentMethod = "card"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodKakaoPay     PaymentMethod = "kakao_pay"
	MethodNaverPay     PaymentMethod = "naver_pay"
)

// ValidPaymentMethod reports whether m is in the enumerated set.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case MethodCard, MethodBankTransfer, MethodKakaoPay, MethodNaverPay:
		return true
	}
	return false
}

// ShippingAddress is the delivery destination captured on the order.
// Recipient, phone and address are mandatory.
type ShippingAddress struct {
	Recipient       string `json:"recipient"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
	DetailAddress   string `json:"detailAddress,omitempty"`
	ZipCode         string `json:"zipCode,omitempty"`
	DeliveryRequest string `json:"deliveryRequest,omitempty"`
}

// MaxDeliveryRequestLen bounds the free-text delivery note.
const MaxDeliveryRequestLen = 100

// Validate checks the mandatory shipping fields.
func (a ShippingAddress) Validate() error {
	if a.Recipient == "" || a.Phone == "" || a.Address == "" {
		return Invalid("order.create", "missing shipping fields")
	}
	if len([]rune(a.DeliveryRequest)) > MaxDeliveryRequestLen {
		return Invalid("order.create", "delivery request too long")
	}
	return nil
}

// PaymentData is the reconciliation record linking an order to the external
// payment gateway. MerchantUID is the idempotence key: exactly one order may
// exist per merchant reference, enforced by a unique index at the store.
type PaymentData struct {
	TransactionID     string `json:"imp_uid"`
	MerchantUID       string `json:"merchant_uid"`
	PaidAmount        int64  `json:"paid_amount"`
	ApplyNum          string `json:"apply_num,omitempty"`
	PaymentMethodType string `json:"payment_method_type,omitempty"`
}

// OrderItem is a point-in-time snapshot of one cart line. Price and the
// denormalized product fields are captured at order time and never change,
// even if the catalog record changes later.
type OrderItem struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	ProductSKU  string `json:"productSku"`
	Category    string `json:"category,omitempty"`
	Image       string `json:"image,omitempty"`
	Quantity    int32  `json:"quantity"`
	Price       int64  `json:"price"`
}

// Subtotal is price x quantity for this line.
func (i OrderItem) Subtotal() int64 {
	return i.Price * int64(i.Quantity)
}

// Order is the immutable record of a completed checkout. Only OrderStatus and
// PaymentStatus may change after creation, through sanctioned transitions.
type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	UserID          string          `json:"userId"`
	UserName        string          `json:"userName,omitempty"`
	UserEmail       string          `json:"userEmail,omitempty"`
	Items           []OrderItem     `json:"items"`
	TotalAmount     int64           `json:"totalAmount"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	PaymentData     PaymentData     `json:"paymentData"`
	OrderStatus     OrderStatus     `json:"orderStatus"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// ComputeTotal recomputes TotalAmount from the item snapshot.
func (o *Order) ComputeTotal() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.Subtotal()
	}
	o.TotalAmount = total
	return total
}

// FormatOrderNumber renders the human-readable order number for a calendar
// day and daily sequence: ORD-YYYYMMDD-NNN. The sequence restarts at 001
// each day.
func FormatOrderNumber(day time.Time, seq int64) string {
	return fmt.Sprintf("ORD-%s-%03d", day.Format("20060102"), seq)
}

// Order-related domain errors.
var (
	ErrMissingShippingFields = Invalid("order.create", "missing shipping fields")
	ErrMissingPaymentMethod  = Invalid("order.create", "missing payment method")
	ErrMissingPaymentData    = Invalid("order.create", "missing payment data")
	ErrEmptyCart             = Invalid("order.create", "cart is empty")
	ErrAmountMismatch        = Invalid("order.create", "order amount does not match paid amount")
	ErrDuplicateOrder        = Conflict("order.create", "order already processed")
	ErrShippingStarted       = Invalid("order.cancel", "order cannot be cancelled after shipping has started")
	ErrAlreadyCancelled      = Invalid("order.cancel", "order is already cancelled")
	ErrInvalidTransition     = Invalid("order.update_status", "illegal order status transition")
)

// DuplicateOrderError reports a create attempt whose merchant reference has
// already produced an order. It carries the existing order number so a
// retried client can treat the response as a successful idempotent retry.
type DuplicateOrderError struct {
	OrderNumber string
}

func (e *DuplicateOrderError) Error() string {
	return fmt.Sprintf("order already processed: %s", e.OrderNumber)
}

// Unwrap maps the error onto the conflict code.
func (e *DuplicateOrderError) Unwrap() error {
	return ErrDuplicateOrder
}
