package cart

import (
	"errors"
	"testing"

	"cedra_storefront/internal/models"
)

func TestDecodeCart(t *testing.T) {
	t.Run("prix remonté depuis le produit imbriqué", func(t *testing.T) {
		got, err := decodeCart([]byte(`{"items":[{"id":"a1","product":{"id":5,"name":"Tasse","price":"8.00","sale_price":"6.00"},"quantity":3}]}`), nil)
		if err != nil {
			t.Fatalf("decodeCart: %v", err)
		}
		item := got.cart.Items[0]
		if item.ProductID != "5" || item.Name != "Tasse" || !item.Price.Equal(dec("8")) {
			t.Fatalf("item = %+v", item)
		}
		if !got.cart.Subtotal.Equal(dec("18")) || !got.cart.Total.Equal(dec("18")) {
			t.Fatalf("subtotal=%s total=%s", got.cart.Subtotal, got.cart.Total)
		}
		if got.hasTotal {
			t.Fatal("total was derived, not sent")
		}
	})

	t.Run("panier enveloppé", func(t *testing.T) {
		got, err := decodeCart([]byte(`{"message":"ok","cart":{"items":[],"total":"0"}}`), nil)
		if err != nil || !got.hasItems || !got.hasTotal {
			t.Fatalf("got=%+v err=%v", got, err)
		}
	})

	t.Run("sans lignes", func(t *testing.T) {
		got, err := decodeCart([]byte(`{"detail":"ok"}`), nil)
		if err != nil || got.hasItems {
			t.Fatalf("got=%+v err=%v", got, err)
		}
	})

	t.Run("coupon absent garde le repli, null le détache", func(t *testing.T) {
		fallback := percentCoupon("KEEP", 10)
		kept, _ := decodeCart([]byte(`{"items":[],"subtotal":"50"}`), fallback)
		if kept.cart.Coupon != fallback || !kept.cart.Discount.Equal(dec("5")) {
			t.Fatalf("kept = %+v", kept.cart)
		}
		dropped, _ := decodeCart([]byte(`{"items":[],"subtotal":"50","coupon":null}`), fallback)
		if dropped.cart.Coupon != nil || !dropped.cart.Discount.IsZero() {
			t.Fatalf("dropped = %+v", dropped.cart)
		}
	})

	t.Run("coupon sous forme de code", func(t *testing.T) {
		got, _ := decodeCart([]byte(`{"items":[],"coupon":"WELCOME"}`), nil)
		if got.cart.Coupon == nil || got.cart.Coupon.Code != "WELCOME" {
			t.Fatalf("coupon = %+v", got.cart.Coupon)
		}
	})

	t.Run("lignes à quantité nulle ignorées", func(t *testing.T) {
		got, _ := decodeCart([]byte(`{"items":[{"id":1,"product_id":2,"price":"3","quantity":0}]}`), nil)
		if len(got.cart.Items) != 0 {
			t.Fatalf("items = %+v", got.cart.Items)
		}
	})

	t.Run("réponse illisible", func(t *testing.T) {
		if _, err := decodeCart([]byte(`[]`), nil); !errors.Is(err, ErrUnexpectedResponse) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestProductName(t *testing.T) {
	c := &models.Cart{Items: []models.CartItem{{ProductID: "7", Name: "Lampe"}}}
	if productName(c, "7") != "Lampe" || productName(c, "8") != "" || productName(nil, "7") != "" {
		t.Fatal("productName mismatch")
	}
}
