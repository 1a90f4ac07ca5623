package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusCompleted OrderStatus = "Completed"
	OrderStatusFailed    OrderStatus = "Failed"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusFailed:
		return true
	}
	return false
}

// Order represents a customer order.
type Order struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	UserID           string          `json:"userId" db:"user_id"`
	OrderDate        time.Time       `json:"orderDate" db:"order_date"`
	TotalAmount      decimal.Decimal `json:"totalAmount" db:"total_amount"`
	Status           OrderStatus     `json:"status" db:"status"`
	CustomerEmail    *string         `json:"customerEmail,omitempty" db:"customer_email"`
	ShippingAddress  *string         `json:"shippingAddress,omitempty" db:"shipping_address"`
	BillingAddress   *string         `json:"billingAddress,omitempty" db:"billing_address"`
	PaymentReference *string         `json:"paymentReference,omitempty" db:"payment_reference"`
	PaymentIntentID  *string         `json:"paymentIntentId,omitempty" db:"payment_intent_id"`
	Items            []OrderItem     `json:"items"`
	CreatedAt        time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderItem is a line of an order. Name and unit price are frozen at purchase time.
type OrderItem struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	OrderID     uuid.UUID       `json:"-" db:"order_id"`
	ProductID   uuid.UUID       `json:"productId" db:"product_id"`
	ProductName string          `json:"productName" db:"product_name"`
	Quantity    int             `json:"quantity" db:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice" db:"unit_price"`
}

// LineTotal returns unit price times quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderDetails carries the payment-side information attached to a new order.
type OrderDetails struct {
	PaymentReference *string
	PaymentIntentID  *string
	CustomerEmail    *string
	ShippingAddress  *string
	BillingAddress   *string
	Status           OrderStatus
}
