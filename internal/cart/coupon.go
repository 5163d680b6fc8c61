package cart

import (
	"context"
	"encoding/json"
	"net/http"

	"cedra_storefront/internal/coupon"
	"cedra_storefront/internal/models"
	"cedra_storefront/internal/notify"
	"cedra_storefront/internal/pricing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	applyCouponEndpoint  = "/cart/apply-coupon/"
	removeCouponEndpoint = "/cart/remove-coupon/"
)

type applyCouponRequest struct {
	Code string `json:"code"`
}

// ApplyCoupon vérifie le code puis l'applique côté serveur.
// Les refus du vérificateur (*coupon.InvalidError) remontent tels quels
// pour un affichage sous le champ de saisie.
func (s *Store) ApplyCoupon(ctx context.Context, code string) (*models.Coupon, error) {
	if !s.signedIn() {
		return nil, ErrNotAuthenticated
	}

	verified, err := s.coupons.Verify(ctx, code)
	if err != nil {
		s.logger.Info("🎟️ Coupon refusé", zap.String("code", code), zap.Error(err))
		return nil, err
	}

	if coupon.IsDevelopment(verified) {
		s.applyLocally(verified)
		notify.Success(s.notifier, "Code promo appliqué")
		return verified, nil
	}

	s.mu.Lock()
	epoch := s.beginLocked()
	s.mu.Unlock()
	s.changed()
	defer s.end(epoch, nil)

	s.api.Invalidate(cartPrefix)
	var raw json.RawMessage
	if err := s.api.Mutate(ctx, http.MethodPost, applyCouponEndpoint, applyCouponRequest{Code: verified.Code}, &raw); err != nil {
		s.logger.Warn("❌ Erreur application coupon", zap.String("code", verified.Code), zap.Error(err))
		s.fail(epoch, err, "Impossible d'appliquer le code promo")
		return nil, err
	}

	if _, err := s.ingest(ctx, epoch, raw, verified, nil); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.epoch == epoch && s.cart != nil && s.cart.Coupon == nil {
		// relecture sans coupon : on rattache celui qui vient d'être validé
		s.cart.Coupon = verified
	}
	s.mu.Unlock()

	s.logger.Info("🎟️ Coupon appliqué", zap.String("code", verified.Code))
	notify.Success(s.notifier, "Code promo appliqué")
	return verified, nil
}

// RemoveCoupon détache le coupon ; la remise retombe à zéro.
func (s *Store) RemoveCoupon(ctx context.Context) error {
	if !s.signedIn() {
		return ErrNotAuthenticated
	}

	s.mu.Lock()
	var current *models.Coupon
	if s.cart != nil {
		current = s.cart.Coupon
	}
	s.mu.Unlock()

	if coupon.IsDevelopment(current) {
		s.applyLocally(nil)
		notify.Success(s.notifier, "Code promo retiré")
		return nil
	}

	s.mu.Lock()
	epoch := s.beginLocked()
	s.mu.Unlock()
	s.changed()
	defer s.end(epoch, nil)

	s.api.Invalidate(cartPrefix)
	var raw json.RawMessage
	if err := s.api.Mutate(ctx, http.MethodDelete, removeCouponEndpoint, nil, &raw); err != nil {
		s.logger.Warn("❌ Erreur retrait coupon", zap.Error(err))
		// erreur affichée sous le champ par l'appelant, pas de toast
		s.fail(epoch, err, "Impossible de retirer le code promo")
		return err
	}

	_, err := s.ingest(ctx, epoch, raw, nil, func(c *models.Cart, d decoded) {
		c.Coupon = nil
		c.Discount = decimal.Zero
		if !d.hasTotal {
			c.Total = pricing.CartTotal(c.Subtotal, c.Shipping, c.Tax, c.Discount)
		}
	})
	if err != nil {
		return err
	}

	s.logger.Info("🎟️ Coupon retiré")
	notify.Success(s.notifier, "Code promo retiré")
	return nil
}

// applyLocally applique (ou retire, c == nil) un coupon sans aller-retour serveur.
func (s *Store) applyLocally(c *models.Coupon) {
	s.mu.Lock()
	if s.cart == nil {
		s.cart = models.EmptyCart()
	}
	next := s.cart.Clone()
	next.Coupon = c
	next.Discount = pricing.Discount(next.Subtotal, c)
	next.Total = pricing.CartTotal(next.Subtotal, next.Shipping, next.Tax, next.Discount)
	s.cart = next
	s.mu.Unlock()
	s.changed()
}
