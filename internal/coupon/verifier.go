// Package coupon vérifie un code promo côté client avant de demander son application au serveur.
package coupon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cedra_storefront/internal/models"

	"go.uber.org/zap"
)

const (
	couponsEndpoint = "/coupons/"
	maxPages        = 50
)

// Getter est la partie lecture de la passerelle.
type Getter interface {
	Get(ctx context.Context, endpoint string, out any) error
}

type Verifier struct {
	api    Getter
	now    func() time.Time
	logger *zap.Logger
}

func NewVerifier(api Getter, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{api: api, now: time.Now, logger: logger}
}

// WithClock remplace l'horloge (tests).
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

// Verify cherche le code (casse ignorée) dans la liste des coupons puis applique les règles
// dans l'ordre : actif, date de début, date de fin, limite d'utilisation.
// La première règle en échec renvoie son message.
func (v *Verifier) Verify(ctx context.Context, code string) (*models.Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, &InvalidError{Reason: ReasonNotFound, Message: "Code coupon requis"}
	}

	if dev := developmentCoupon(code); dev != nil {
		v.logger.Warn("⚠️ Coupon de développement utilisé", zap.String("code", dev.Code))
		return dev, nil
	}

	coupons, err := v.list(ctx)
	if err != nil {
		return nil, err
	}

	var found *models.Coupon
	for i := range coupons {
		if strings.EqualFold(strings.TrimSpace(coupons[i].Code), code) {
			found = &coupons[i]
			break
		}
	}
	if found == nil {
		return nil, &InvalidError{Reason: ReasonNotFound, Message: "Code coupon invalide"}
	}

	if err := Check(found, v.now()); err != nil {
		return nil, err
	}
	return found, nil
}

// Check applique les règles métier à un coupon déjà trouvé.
func Check(c *models.Coupon, now time.Time) error {
	if !c.IsActive {
		return &InvalidError{Reason: ReasonInactive, Message: "Ce coupon n'est plus actif"}
	}
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return &InvalidError{
			Reason:  ReasonNotYetValid,
			Message: fmt.Sprintf("Ce coupon n'est pas encore valide, disponible à partir du %s", c.ValidFrom.Format("02/01/2006")),
		}
	}
	if c.ValidTo != nil && now.After(*c.ValidTo) {
		return &InvalidError{Reason: ReasonExpired, Message: "Ce coupon a expiré"}
	}
	if c.MaxUses > 0 && c.TimesUsed >= c.MaxUses {
		return &InvalidError{Reason: ReasonUsageLimit, Message: "Ce coupon a atteint sa limite d'utilisation"}
	}
	return nil
}

// list parcourt toutes les pages de /coupons/ en suivant "next".
func (v *Verifier) list(ctx context.Context) ([]models.Coupon, error) {
	var all []models.Coupon
	endpoint := couponsEndpoint

	for page := 0; page < maxPages && endpoint != ""; page++ {
		var resp models.CouponPage
		if err := v.api.Get(ctx, endpoint, &resp); err != nil {
			return nil, fmt.Errorf("récupération des coupons: %w", err)
		}
		all = append(all, resp.Results...)

		endpoint = ""
		if resp.Next != nil {
			endpoint = *resp.Next
		}
	}
	return all, nil
}
