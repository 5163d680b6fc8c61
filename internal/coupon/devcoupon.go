//go:build devcoupons

package coupon

import (
	"strings"

	"cedra_storefront/internal/models"

	"github.com/shopspring/decimal"
)

// DevelopmentCode n'existe que dans les binaires compilés avec -tags devcoupons.
const DevelopmentCode = "TESTCOUPON"

func developmentCoupon(code string) *models.Coupon {
	if !strings.EqualFold(code, DevelopmentCode) {
		return nil
	}
	return &models.Coupon{
		ID:            "dev",
		Code:          DevelopmentCode,
		DiscountType:  models.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
		IsActive:      true,
	}
}

// IsDevelopment indique un coupon appliqué localement, sans aller-retour serveur.
func IsDevelopment(c *models.Coupon) bool {
	return c != nil && c.ID == "dev" && c.Code == DevelopmentCode
}
