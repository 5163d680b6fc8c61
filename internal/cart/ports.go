package cart

import (
	"context"
	"time"

	"cedra_storefront/internal/models"
)

// Gateway est la partie de la passerelle API dont le panier a besoin.
type Gateway interface {
	Get(ctx context.Context, endpoint string, out any) error
	Mutate(ctx context.Context, method, endpoint string, body, out any) error
	Invalidate(prefix string)
}

type IdentitySource interface {
	Current() (models.Identity, bool)
}

type CouponVerifier interface {
	Verify(ctx context.Context, code string) (*models.Coupon, error)
}

type Timer interface {
	Stop() bool
}

// Scheduler programme le fetch différé ; remplacé par une horloge factice en test.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
