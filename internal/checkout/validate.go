package checkout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"cedra_storefront/internal/models"
)

var ErrInvalidStep = errors.New("étape de commande incomplète")

// ValidationError est affichée à côté du champ concerné.
type ValidationError struct {
	Step    Step
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidStep }

func invalid(step Step, field, msg string) error {
	return &ValidationError{Step: step, Field: field, Message: msg}
}

var installmentPlans = map[int]bool{3: true, 6: true, 12: true}

func validateShipping(f Form) error {
	if !f.Shipping.IsComplete() || f.Shipping.FullName == "" {
		return invalid(StepShipping, "shipping_address", "Veuillez sélectionner une adresse de livraison")
	}
	return nil
}

func validateBilling(f Form) error {
	if f.BillingSameAsShipping {
		return nil
	}
	if !f.Billing.IsComplete() {
		return invalid(StepBilling, "billing_address", "Veuillez renseigner une adresse de facturation")
	}
	return nil
}

func validatePayment(f Form, now time.Time) error {
	p := f.Payment
	switch p.Method {
	case "":
		return invalid(StepPayment, "method", "Veuillez choisir un moyen de paiement")
	case MethodCard:
		return validateCard(p.Card, now)
	case MethodStripe:
		if p.Token == "" {
			return invalid(StepPayment, "token", "Informations de carte manquantes")
		}
	case MethodInstallments:
		if !installmentPlans[p.InstallmentPlan] {
			return invalid(StepPayment, "installment_plan", "Veuillez choisir un échéancier (3, 6 ou 12 mois)")
		}
		return validateCard(p.Card, now)
	case MethodPayPal, MethodCashOnDelivery:
	default:
		return invalid(StepPayment, "method", fmt.Sprintf("Moyen de paiement %q non pris en charge", p.Method))
	}
	return nil
}

func validateCard(c *CardDetails, now time.Time) error {
	if c == nil {
		return invalid(StepPayment, "card", "Veuillez renseigner votre carte")
	}
	if strings.TrimSpace(c.Holder) == "" {
		return invalid(StepPayment, "card.holder", "Nom du titulaire requis")
	}
	if !luhn(c.Number) {
		return invalid(StepPayment, "card.number", "Numéro de carte invalide")
	}
	if !expiryValid(c.Expiry, now) {
		return invalid(StepPayment, "card.expiry", "Date d'expiration invalide")
	}
	if n := len(c.CVC); n < 3 || n > 4 || !allDigits(c.CVC) {
		return invalid(StepPayment, "card.cvc", "Cryptogramme invalide")
	}
	return nil
}

// luhn vérifie la clé d'un numéro de carte (espaces et tirets ignorés).
func luhn(number string) bool {
	digits := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, number)
	if len(digits) < 13 || len(digits) > 19 || !allDigits(digits) {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// expiryValid accepte MM/AA ; la carte reste valable jusqu'à la fin du mois indiqué.
func expiryValid(expiry string, now time.Time) bool {
	parts := strings.Split(strings.TrimSpace(expiry), "/")
	if len(parts) != 2 {
		return false
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return false
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return false
	}
	if year < 100 {
		year += 2000
	}
	endOfMonth := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	return now.Before(endOfMonth)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func billingAddress(f Form) models.Address {
	if f.BillingSameAsShipping || f.Billing == nil {
		return *f.Shipping
	}
	return *f.Billing
}
