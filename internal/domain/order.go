package domain

import "time"

// Order status constants, shared by package orders and their per-shop orders.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipping  = "shipping"
	OrderStatusDelivered = "delivered"
	OrderStatusCanceled  = "canceled"
)

// PackageOrder is one checkout by a buyer. Items from different shops are
// split into per-shop Orders under the same package.
type PackageOrder struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	Status      string    `json:"status"`
	Subtotal    int64     `json:"subtotal"`
	ShippingFee int64     `json:"shipping_fee"`
	Total       int64     `json:"total"`
	Currency    string    `json:"currency"`
	PaymentID   string    `json:"payment_id,omitempty"`
	PayerID     string    `json:"payer_id,omitempty"`
	AddressID   string    `json:"address_id"`
	Orders      []Order   `json:"orders,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Order groups the line items of one shop within a package order.
type Order struct {
	ID             string        `json:"id"`
	PackageOrderID string        `json:"package_order_id"`
	ShopID         string        `json:"shop_id"`
	Status         string        `json:"status"`
	Total          int64         `json:"total"`
	Details        []OrderDetail `json:"details,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// OrderDetail is one line item within a per-shop order. It is the unit a
// review attaches to.
type OrderDetail struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidOrderStatuses returns all valid order statuses.
func ValidOrderStatuses() []string {
	return []string{
		OrderStatusPending,
		OrderStatusPaid,
		OrderStatusShipping,
		OrderStatusDelivered,
		OrderStatusCanceled,
	}
}

// IsValidOrderStatus checks if a status string is valid.
func IsValidOrderStatus(status string) bool {
	for _, s := range ValidOrderStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// AllowedOrderTransitions defines which status transitions are valid.
func AllowedOrderTransitions() map[string][]string {
	return map[string][]string{
		OrderStatusPending:   {OrderStatusPaid, OrderStatusCanceled},
		OrderStatusPaid:      {OrderStatusShipping, OrderStatusCanceled},
		OrderStatusShipping:  {OrderStatusDelivered},
		OrderStatusDelivered: {},
		OrderStatusCanceled:  {},
	}
}

// CanTransitionTo checks if the order can move to the target status.
func (o *Order) CanTransitionTo(target string) bool {
	allowed, ok := AllowedOrderTransitions()[o.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}
