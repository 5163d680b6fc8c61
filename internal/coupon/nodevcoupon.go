//go:build !devcoupons

package coupon

import "cedra_storefront/internal/models"

func developmentCoupon(string) *models.Coupon { return nil }

// IsDevelopment est toujours faux hors build devcoupons.
func IsDevelopment(*models.Coupon) bool { return false }
