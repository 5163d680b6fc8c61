package storefront

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"cedra_storefront/internal/checkout"
	"cedra_storefront/internal/coupon"
	"cedra_storefront/internal/fakeapi"
	"cedra_storefront/internal/models"
	"cedra_storefront/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRegistry(t *testing.T) (*Registry, *fakeapi.Server) {
	t.Helper()
	api := fakeapi.New(fakeapi.Options{})
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	reg := NewRegistry(Config{BaseURL: srv.URL, Timeout: 2 * time.Second, Debounce: 50 * time.Millisecond})
	t.Cleanup(reg.Shutdown)
	return reg, api
}

func identityFor(t *testing.T, api *fakeapi.Server, email string) models.Identity {
	t.Helper()
	access, refresh, err := api.Issue(email)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	identity, err := session.IdentityFromTokens(access, refresh)
	if err != nil {
		t.Fatalf("IdentityFromTokens: %v", err)
	}
	return identity
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestShoppingFlowAgainstFakeAPI(t *testing.T) {
	reg, api := newRegistry(t)
	ctx := context.Background()

	s := reg.Login(identityFor(t, api, "ana@example.com"))
	eventually(t, func() bool { return s.Cart.Snapshot().Cart != nil && !s.Cart.Snapshot().IsLoading })

	if err := s.Cart.AddItem(ctx, "7", 2); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	snap := s.Cart.Snapshot()
	if snap.Count != 2 || !snap.Subtotal.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("after add: count=%d subtotal=%s", snap.Count, snap.Subtotal)
	}

	if _, err := s.Cart.ApplyCoupon(ctx, "old"); coupon.ReasonOf(err) != coupon.ReasonExpired {
		t.Fatalf("expired coupon err = %v", err)
	}
	if _, err := s.Cart.ApplyCoupon(ctx, "save10"); err != nil {
		t.Fatalf("ApplyCoupon: %v", err)
	}
	snap = s.Cart.Snapshot()
	if !snap.Discount.Equal(decimal.NewFromInt(20)) || !snap.Total.Equal(decimal.NewFromInt(180)) {
		t.Fatalf("after coupon: discount=%s total=%s", snap.Discount, snap.Total)
	}

	itemID := snap.Items[0].ID.String()
	if err := s.Cart.UpdateItemQuantity(ctx, itemID, 3); err != nil {
		t.Fatalf("UpdateItemQuantity: %v", err)
	}
	snap = s.Cart.Snapshot()
	if snap.Count != 3 || !snap.Total.Equal(decimal.NewFromInt(270)) {
		t.Fatalf("after update: count=%d total=%s", snap.Count, snap.Total)
	}

	co := s.Checkout
	co.SetShipping(models.Address{FullName: "Ana Martin", Street: "3 rue des Lilas", City: "Lyon", PostalCode: "69003", Country: "FR"})
	co.SetBilling(nil, true)
	co.SetPayment(checkout.PaymentSelection{Method: checkout.MethodPayPal})
	if err := co.GoTo(checkout.StepReview); err != nil {
		t.Fatalf("GoTo review: %v", err)
	}
	order, err := co.Submit(ctx)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	stored, ok := api.Order(order.ID.String())
	if !ok || stored.Status != "paid" || !stored.TotalAmount.Equal(decimal.NewFromInt(270)) {
		t.Fatalf("server order = %+v", stored)
	}
	if snap := s.Cart.Snapshot(); snap.Count != 0 || snap.Cart == nil {
		t.Fatalf("cart not cleared: %+v", snap)
	}

	reg.Close(s.UserID)
	if reg.Len() != 0 {
		t.Fatalf("registry still holds %d sessions", reg.Len())
	}
	if _, ok := s.Identity.Current(); ok {
		t.Fatal("identity survived logout")
	}
}

func TestDeclinedPaymentCancelsOrder(t *testing.T) {
	reg, api := newRegistry(t)
	api.Decline(checkout.MethodCashOnDelivery)
	ctx := context.Background()

	s := reg.Login(identityFor(t, api, "leo@example.com"))
	eventually(t, func() bool { return s.Cart.Snapshot().Cart != nil && !s.Cart.Snapshot().IsLoading })
	if err := s.Cart.AddItem(ctx, "11", 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	co := s.Checkout
	co.SetShipping(models.Address{FullName: "Léo Petit", Street: "1 quai Est", City: "Nantes", PostalCode: "44000", Country: "FR"})
	co.SetBilling(nil, true)
	co.SetPayment(checkout.PaymentSelection{Method: checkout.MethodCashOnDelivery})
	if err := co.GoTo(checkout.StepReview); err != nil {
		t.Fatalf("GoTo review: %v", err)
	}

	_, err := co.Submit(ctx)
	if !errors.Is(err, checkout.ErrPaymentFailed) {
		t.Fatalf("err = %v", err)
	}
	if api.Hits("PATCH /orders/101/") == 0 && api.Hits("PATCH /orders/102/") == 0 {
		t.Fatal("order was not cancelled")
	}
	if s.Cart.Snapshot().Count != 1 {
		t.Fatal("cart must survive a failed payment")
	}
}

func TestSessionsAreIsolatedPerIdentity(t *testing.T) {
	reg, api := newRegistry(t)
	ctx := context.Background()

	ana := reg.Login(identityFor(t, api, "ana@example.com"))
	leo := reg.Login(identityFor(t, api, "leo@example.com"))
	eventually(t, func() bool { return ana.Cart.Snapshot().Cart != nil && leo.Cart.Snapshot().Cart != nil })

	if err := ana.Cart.AddItem(ctx, "9", 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := leo.Cart.FetchCart(ctx, true); err != nil {
		t.Fatalf("FetchCart: %v", err)
	}
	if leo.Cart.Snapshot().Count != 0 {
		t.Fatal("cart leaked between identities")
	}
	if reg.Open(models.Identity{UserID: ana.UserID}) != ana {
		t.Fatal("Open should return the existing session")
	}
}
