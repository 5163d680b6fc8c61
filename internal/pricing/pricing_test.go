package pricing

import (
	"testing"

	"cedra_storefront/internal/models"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestTotal(t *testing.T) {
	percent10 := &models.Coupon{DiscountType: models.DiscountPercentage, DiscountValue: dec("10")}
	fixed20 := &models.Coupon{DiscountType: models.DiscountFixed, DiscountValue: dec("20")}
	fixed80 := &models.Coupon{DiscountType: models.DiscountFixed, DiscountValue: dec("80")}
	percent150 := &models.Coupon{DiscountType: models.DiscountPercentage, DiscountValue: dec("150")}

	cases := []struct {
		name         string
		subtotal     string
		shipping     string
		coupon       *models.Coupon
		wantDiscount string
		wantTotal    string
	}{
		{"no coupon", "100", "0", nil, "0", "100"},
		{"percentage", "100", "0", percent10, "10", "90"},
		{"fixed with shipping", "50", "5", fixed20, "20", "35"},
		{"fixed larger than subtotal is clamped", "50", "5", fixed80, "50", "5"},
		{"percentage over 100 is clamped", "40", "0", percent150, "40", "0"},
		{"empty cart", "0", "0", fixed20, "0", "0"},
		{"percentage rounds to cents", "33.33", "0", percent10, "3.33", "30"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, h := dec(tc.subtotal), dec(tc.shipping)

			gotDiscount := Discount(s, tc.coupon)
			if !gotDiscount.Equal(dec(tc.wantDiscount)) {
				t.Fatalf("discount: expected %s, got %s", tc.wantDiscount, gotDiscount)
			}

			gotTotal := Total(s, h, tc.coupon)
			if !gotTotal.Equal(dec(tc.wantTotal)) {
				t.Fatalf("total: expected %s, got %s", tc.wantTotal, gotTotal)
			}
			if !gotTotal.Equal(s.Add(h).Sub(gotDiscount)) {
				t.Fatalf("total %s != S+H-discount", gotTotal)
			}
			if gotTotal.IsNegative() {
				t.Fatalf("total must never be negative, got %s", gotTotal)
			}
		})
	}
}

func TestCartTotalIncludesTax(t *testing.T) {
	got := CartTotal(dec("200"), dec("10"), dec("16"), dec("20"))
	if !got.Equal(dec("206")) {
		t.Fatalf("expected 206, got %s", got)
	}
	if got := CartTotal(dec("5"), dec("0"), dec("0"), dec("10")); !got.IsZero() {
		t.Fatalf("expected floor at 0, got %s", got)
	}
}

func TestLineSubtotal(t *testing.T) {
	sale, above := dec("4"), dec("12")
	items := []models.CartItem{
		{Price: dec("10"), Quantity: 2},
		{Price: dec("5"), SalePrice: &sale, Quantity: 3},
		// prix soldé supérieur au prix : ignoré
		{Price: dec("10"), SalePrice: &above, Quantity: 1},
	}
	if got := LineSubtotal(items); !got.Equal(dec("42")) {
		t.Fatalf("expected 42, got %s", got)
	}
}
