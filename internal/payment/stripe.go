package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cedra_storefront/internal/models"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"go.uber.org/zap"
)

var ErrMissingPaymentMethod = errors.New("moyen de paiement Stripe manquant")

// StripeProcessor crée et confirme un PaymentIntent avec le jeton de carte
// fourni par le front (Details["payment_method"]). La clé vient de stripe.Key.
type StripeProcessor struct {
	currency string
	logger   *zap.Logger
	create   func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

func NewStripe(currency string, logger *zap.Logger) *StripeProcessor {
	if currency == "" {
		currency = "eur"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StripeProcessor{currency: strings.ToLower(currency), logger: logger, create: paymentintent.New}
}

func (p *StripeProcessor) Process(_ context.Context, req models.PaymentRequest) (models.PaymentResult, error) {
	token := req.Details["payment_method"]
	if token == "" {
		return models.PaymentResult{}, ErrMissingPaymentMethod
	}

	currency := p.currency
	if req.Currency != "" {
		currency = strings.ToLower(req.Currency)
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.Amount.Shift(2).Round(0).IntPart()),
		Currency:      stripe.String(currency),
		PaymentMethod: stripe.String(token),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.AddMetadata("order_id", req.OrderID.String())
	// une commande = un PaymentIntent, même si l'appel est rejoué
	params.SetIdempotencyKey("order-" + req.OrderID.String())

	intent, err := p.create(params)
	if err != nil {
		p.logger.Error("❌ Erreur Stripe", zap.String("order_id", req.OrderID.String()), zap.Error(err))
		return models.PaymentResult{}, fmt.Errorf("stripe: %w", err)
	}

	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded, stripe.PaymentIntentStatusProcessing, stripe.PaymentIntentStatusRequiresCapture:
		p.logger.Info("✅ Paiement Stripe confirmé", zap.String("intent", intent.ID), zap.String("order_id", req.OrderID.String()))
		return models.PaymentResult{Success: true, TransactionID: intent.ID}, nil
	default:
		return models.PaymentResult{
			Success:       false,
			TransactionID: intent.ID,
			Message:       fmt.Sprintf("paiement non abouti (%s)", intent.Status),
		}, nil
	}
}
