package checkout

type Step int

const (
	StepShipping Step = iota
	StepBilling
	StepPayment
	StepReview
	StepConfirmed
)

func (s Step) String() string {
	switch s {
	case StepShipping:
		return "shipping"
	case StepBilling:
		return "billing"
	case StepPayment:
		return "payment"
	case StepReview:
		return "review"
	case StepConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// ParseStep accepte le nom d'une étape (routes HTTP).
func ParseStep(name string) (Step, bool) {
	for s := StepShipping; s <= StepConfirmed; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

// Méthodes de paiement reconnues par le formulaire.
const (
	MethodCard           = "card"
	MethodStripe         = "stripe"
	MethodPayPal         = "paypal"
	MethodInstallments   = "installments"
	MethodCashOnDelivery = "cash_on_delivery"
)

type CardDetails struct {
	Holder string `json:"holder"`
	Number string `json:"number"`
	Expiry string `json:"expiry"` // MM/AA
	CVC    string `json:"cvc"`
}

type PaymentSelection struct {
	Method string       `json:"method"`
	Card   *CardDetails `json:"card,omitempty"`
	// Token est le moyen de paiement Stripe (pm_...) créé côté navigateur.
	Token           string `json:"token,omitempty"`
	InstallmentPlan int    `json:"installment_plan,omitempty"`
}
