package domain

import "time"

// CartItem is one line of a user's cart: a product reference, a quantity,
// and the unit price captured when the item was added.
type CartItem struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	ProductSKU  string `json:"productSku"`
	Category    string `json:"category,omitempty"`
	Image       string `json:"image,omitempty"`
	Quantity    int32  `json:"quantity"`
	Price       int64  `json:"price"`
}

// Cart is the per-user collection of selected-but-unpurchased items.
// Exactly one cart exists per user; it is emptied, not deleted, when an
// order is placed. Totals are derived from the items on every read.
type Cart struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Items       []CartItem `json:"items"`
	TotalAmount int64      `json:"totalAmount"`
	TotalItems  int32      `json:"totalItems"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ComputeTotals recomputes TotalAmount and TotalItems from the items.
func (c *Cart) ComputeTotals() {
	var amount int64
	var count int32
	for _, item := range c.Items {
		amount += item.Price * int64(item.Quantity)
		count += item.Quantity
	}
	c.TotalAmount = amount
	c.TotalItems = count
}
