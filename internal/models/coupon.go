package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type Coupon struct {
	ID            ID              `json:"id"`
	Code          string          `json:"code"`
	DiscountType  DiscountType    `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	MinPurchase   decimal.Decimal `json:"min_purchase"`
	ValidFrom     *time.Time      `json:"valid_from,omitempty"`
	ValidTo       *time.Time      `json:"valid_to,omitempty"`
	MaxUses       int             `json:"max_uses"`
	TimesUsed     int             `json:"times_used"`
	IsActive      bool            `json:"is_active"`
}

// CouponPage est une page de GET /coupons/ (collection sous "results").
type CouponPage struct {
	Count   int      `json:"count"`
	Next    *string  `json:"next"`
	Results []Coupon `json:"results"`
}
