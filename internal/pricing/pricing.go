// Package pricing regroupe les calculs de totaux du panier.
// Les mêmes fonctions servent à l'aperçu avant confirmation serveur ; dès que le
// serveur répond, ses montants font foi.
package pricing

import (
	"cedra_storefront/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Discount calcule la réduction d'un coupon sur un sous-total.
// La réduction est bornée à [0, sous-total] pour que le total ne soit jamais négatif.
func Discount(subtotal decimal.Decimal, coupon *models.Coupon) decimal.Decimal {
	if coupon == nil || !subtotal.IsPositive() {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch coupon.DiscountType {
	case models.DiscountPercentage:
		discount = subtotal.Mul(coupon.DiscountValue).Div(hundred)
	case models.DiscountFixed:
		discount = coupon.DiscountValue
	default:
		return decimal.Zero
	}

	if discount.IsNegative() {
		return decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		return subtotal
	}
	return discount.Round(2)
}

// Total = sous-total + livraison - réduction du coupon.
func Total(subtotal, shipping decimal.Decimal, coupon *models.Coupon) decimal.Decimal {
	return CartTotal(subtotal, shipping, decimal.Zero, Discount(subtotal, coupon))
}

// CartTotal = sous-total + livraison + taxes - réduction, jamais négatif.
func CartTotal(subtotal, shipping, tax, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Add(shipping).Add(tax).Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// LineSubtotal additionne les lignes au prix effectif.
func LineSubtotal(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}
