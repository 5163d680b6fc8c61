package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusCancelled = "cancelled"
)

// OrderRequest est le corps de POST /orders/.
type OrderRequest struct {
	Status          string          `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	BillingAddress  Address         `json:"billing_address"`
	ShippingAddress Address         `json:"shipping_address"`
	CouponCode      string          `json:"coupon_code,omitempty"`
	ClientReference string          `json:"client_reference"`
}

type Order struct {
	ID              ID              `json:"id"`
	Status          string          `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ClientReference string          `json:"client_reference,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}
