//go:build devcoupons

package cart

import (
	"context"
	"errors"
	"testing"

	"cedra_storefront/internal/coupon"
)

type unreachable struct{}

func (unreachable) Get(context.Context, string, any) error { return errors.New("hors ligne") }

func TestDevelopmentCouponAppliesLocally(t *testing.T) {
	h := newHarness(coupon.NewVerifier(unreachable{}, nil))
	h.api.on("GET /cart/", response{body: cart200})
	ctx := context.Background()
	_ = h.store.FetchCart(ctx, true)

	if _, err := h.store.ApplyCoupon(ctx, "testcoupon"); err != nil {
		t.Fatalf("ApplyCoupon: %v", err)
	}
	snap := h.store.Snapshot()
	if !snap.Discount.Equal(dec("20")) || !snap.Total.Equal(dec("180")) {
		t.Fatalf("discount=%s total=%s", snap.Discount, snap.Total)
	}

	if err := h.store.RemoveCoupon(ctx); err != nil {
		t.Fatalf("RemoveCoupon: %v", err)
	}
	snap = h.store.Snapshot()
	if snap.Coupon != nil || !snap.Discount.IsZero() || !snap.Total.Equal(dec("200")) {
		t.Fatalf("discount=%s total=%s", snap.Discount, snap.Total)
	}
	if h.api.count("POST /cart/apply-coupon/") != 0 || h.api.count("DELETE /cart/remove-coupon/") != 0 {
		t.Fatalf("development coupon reached the server: %v", h.api.Calls())
	}
}
