package coupon

import "errors"

// ErrInvalidCoupon est la cible errors.Is de toutes les erreurs de validation.
var ErrInvalidCoupon = errors.New("coupon invalide")

type Reason string

const (
	ReasonNotFound    Reason = "not_found"
	ReasonInactive    Reason = "inactive"
	ReasonNotYetValid Reason = "not_yet_valid"
	ReasonExpired     Reason = "expired"
	ReasonUsageLimit  Reason = "usage_limit"
)

// InvalidError porte la raison précise, affichée telle quelle à côté du formulaire.
type InvalidError struct {
	Reason  Reason
	Message string
}

func (e *InvalidError) Error() string { return e.Message }

func (e *InvalidError) Is(target error) bool { return target == ErrInvalidCoupon }

// ReasonOf renvoie la raison d'une erreur de coupon, ou "".
func ReasonOf(err error) Reason {
	var invalid *InvalidError
	if errors.As(err, &invalid) {
		return invalid.Reason
	}
	return ""
}
