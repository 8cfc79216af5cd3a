package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus tracks an order through the payment lifecycle.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order records a completed or in-flight purchase. PaymentID is the external
// payment processor's identifier and is unique: it is the idempotency anchor
// for the credit intake, and the sum of paid order totals is the user's
// lifetime spend for tier selection.
type Order struct {
	ID           int64           `db:"id"`
	UserID       int64           `db:"user_id"`
	PaymentID    string          `db:"payment_id"`
	Total        decimal.Decimal `db:"total"`
	ITCPurchased decimal.Decimal `db:"itc_purchased"`
	Status       OrderStatus     `db:"status"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// PaymentEvent is the canonical internal shape of a payment processor
// webhook notification. The adapter at the boundary maps the processor's
// payload into this once; everything downstream trusts only this struct.
type PaymentEvent struct {
	PaymentID    string
	UserID       int64
	Amount       decimal.Decimal
	ITCPurchased decimal.Decimal
	Metadata     map[string]any
}
