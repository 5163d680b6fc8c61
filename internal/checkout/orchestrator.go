// Package checkout conduit le tunnel de commande : livraison, facturation,
// paiement, récapitulatif, puis confirmation.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"cedra_storefront/internal/cart"
	"cedra_storefront/internal/models"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

var (
	ErrNotReady         = errors.New("la commande n'est pas prête à être validée")
	ErrSubmitInProgress = errors.New("commande déjà en cours de validation")
	ErrEmptyCart        = errors.New("votre panier est vide")
	ErrCartBusy         = errors.New("le panier est en cours de mise à jour")
	ErrOrderFailed      = errors.New("impossible de créer la commande")
	ErrPaymentFailed    = errors.New("le paiement a échoué")
	ErrNoOrder          = errors.New("aucune commande confirmée")
)

type CartState interface {
	Snapshot() cart.Snapshot
	ClearCart(ctx context.Context) error
}

type OrderAPI interface {
	Mutate(ctx context.Context, method, endpoint string, body, out any) error
}

type Payments interface {
	Process(ctx context.Context, req models.PaymentRequest) (models.PaymentResult, error)
}

// Form regroupe les saisies des trois premières étapes.
type Form struct {
	Shipping              *models.Address  `json:"shipping_address"`
	Billing               *models.Address  `json:"billing_address,omitempty"`
	BillingSameAsShipping bool             `json:"billing_same_as_shipping"`
	Payment               PaymentSelection `json:"payment"`
}

type Options struct {
	Cart     CartState
	API      OrderAPI
	Payments Payments
	Logger   *zap.Logger
	Currency string
	Clock    func() time.Time
}

// State est l'état du tunnel exposé à la présentation.
type State struct {
	Step        Step                  `json:"-"`
	StepName    string                `json:"step"`
	Form        Form                  `json:"form"`
	Submitting  bool                  `json:"submitting"`
	Order       *models.Order         `json:"order,omitempty"`
	Transaction *models.PaymentResult `json:"transaction,omitempty"`
}

type Orchestrator struct {
	cart     CartState
	api      OrderAPI
	payments Payments
	logger   *zap.Logger
	currency string
	now      func() time.Time

	mu         sync.Mutex
	step       Step
	form       Form
	submitting bool
	order      *models.Order
	result     *models.PaymentResult
}

func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		cart:     opts.Cart,
		api:      opts.API,
		payments: opts.Payments,
		logger:   opts.Logger,
		currency: opts.Currency,
		now:      opts.Clock,
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.currency == "" {
		o.currency = "EUR"
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return State{
		Step:        o.step,
		StepName:    o.step.String(),
		Form:        o.form,
		Submitting:  o.submitting,
		Order:       o.order,
		Transaction: o.result,
	}
}

func (o *Orchestrator) SetShipping(addr models.Address) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.form.Shipping = &addr
}

func (o *Orchestrator) SetBilling(addr *models.Address, sameAsShipping bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.form.Billing = addr
	o.form.BillingSameAsShipping = sameAsShipping
}

func (o *Orchestrator) SetPayment(p PaymentSelection) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.form.Payment = p
}

// Validate vérifie une étape sans changer d'étape.
func (o *Orchestrator) Validate(step Step) error {
	o.mu.Lock()
	form := o.form
	o.mu.Unlock()
	return o.validate(step, form)
}

func (o *Orchestrator) validate(step Step, form Form) error {
	switch step {
	case StepShipping:
		return validateShipping(form)
	case StepBilling:
		return validateBilling(form)
	case StepPayment:
		return validatePayment(form, o.now())
	case StepReview:
		snap := o.cart.Snapshot()
		if snap.Count == 0 {
			return invalid(StepReview, "cart", ErrEmptyCart.Error())
		}
		return nil
	default:
		return nil
	}
}

// Next valide l'étape courante puis avance ; le récapitulatif se quitte par Submit.
func (o *Orchestrator) Next() (Step, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.step >= StepReview {
		return o.step, ErrNotReady
	}
	if err := o.validate(o.step, o.form); err != nil {
		return o.step, err
	}
	o.step++
	return o.step, nil
}

// Back recule d'une étape, sans validation.
func (o *Orchestrator) Back() Step {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.step > StepShipping && o.step < StepConfirmed && !o.submitting {
		o.step--
	}
	return o.step
}

// GoTo saute vers une étape : en arrière librement, en avant seulement si
// toutes les étapes intermédiaires sont valides.
func (o *Orchestrator) GoTo(target Step) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if target < StepShipping || target > StepReview || o.step == StepConfirmed || o.submitting {
		return ErrNotReady
	}
	for s := o.step; s < target; s++ {
		if err := o.validate(s, o.form); err != nil {
			o.step = s
			return err
		}
	}
	o.step = target
	return nil
}

// Reset repart d'un tunnel vierge (nouvelle commande).
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.submitting {
		return
	}
	o.step = StepShipping
	o.form = Form{}
	o.order = nil
	o.result = nil
}

// Submit crée la commande puis la paie. La création n'est jamais rejouée ;
// si le paiement échoue la commande est annulée et l'erreur remonte.
func (o *Orchestrator) Submit(ctx context.Context) (*models.Order, error) {
	o.mu.Lock()
	if o.submitting {
		o.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	if o.step != StepReview {
		o.mu.Unlock()
		return nil, ErrNotReady
	}
	form := o.form
	for s := StepShipping; s <= StepReview; s++ {
		if err := o.validate(s, form); err != nil {
			o.mu.Unlock()
			return nil, err
		}
	}
	o.submitting = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.submitting = false
		o.mu.Unlock()
	}()

	snap := o.cart.Snapshot()
	if snap.IsLoading {
		return nil, ErrCartBusy
	}
	if snap.Count == 0 {
		return nil, ErrEmptyCart
	}

	req := models.OrderRequest{
		Status:          models.OrderStatusPending,
		TotalAmount:     snap.Total,
		ShippingAddress: *form.Shipping,
		BillingAddress:  billingAddress(form),
		ClientReference: uuid.NewString(),
	}
	if snap.Coupon != nil {
		req.CouponCode = snap.Coupon.Code
	}

	var order models.Order
	if err := o.api.Mutate(ctx, http.MethodPost, "/orders/", req, &order); err != nil {
		o.logger.Error("❌ Erreur création commande", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrOrderFailed, err)
	}
	if order.ClientReference == "" {
		order.ClientReference = req.ClientReference
	}
	o.logger.Info("📦 Commande créée", zap.String("order_id", order.ID.String()), zap.String("total", snap.Total.StringFixed(2)))

	result, err := o.payments.Process(ctx, models.PaymentRequest{
		OrderID:  order.ID,
		Method:   form.Payment.Method,
		Amount:   snap.Total,
		Currency: o.currency,
		Details:  paymentDetails(form.Payment),
	})
	if err != nil {
		o.cancel(ctx, order.ID)
		return nil, fmt.Errorf("%w: %w", ErrPaymentFailed, err)
	}
	o.logger.Info("✅ Paiement accepté", zap.String("order_id", order.ID.String()), zap.String("transaction", result.TransactionID))

	if err := o.cart.ClearCart(ctx); err != nil {
		// commande payée : le panier sera resynchronisé au prochain chargement
		o.logger.Warn("⚠️ Panier non vidé après commande", zap.Error(err))
	}

	o.mu.Lock()
	o.step = StepConfirmed
	o.order = &order
	o.result = &result
	o.mu.Unlock()
	return &order, nil
}

// cancel annule une commande dont le paiement a échoué, pour qu'elle ne reste pas payable.
func (o *Orchestrator) cancel(ctx context.Context, id models.ID) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 8*time.Second)
	defer cancel()

	body := map[string]string{"status": models.OrderStatusCancelled}
	if err := o.api.Mutate(ctx, http.MethodPatch, "/orders/"+id.String()+"/", body, nil); err != nil {
		o.logger.Error("❌ Annulation de commande impossible", zap.String("order_id", id.String()), zap.Error(err))
		return
	}
	o.logger.Info("🚫 Commande annulée après échec du paiement", zap.String("order_id", id.String()))
}

// ConfirmationQR rend la référence de la commande confirmée en PNG.
func (o *Orchestrator) ConfirmationQR(size int) ([]byte, error) {
	o.mu.Lock()
	order := o.order
	o.mu.Unlock()
	if order == nil {
		return nil, ErrNoOrder
	}
	if size <= 0 {
		size = 256
	}
	content := fmt.Sprintf("cedra:order:%s:%s", order.ID, order.ClientReference)
	return qrcode.Encode(content, qrcode.Medium, size)
}

func paymentDetails(p PaymentSelection) map[string]string {
	details := map[string]string{}
	if p.Card != nil {
		number := onlyDigits(p.Card.Number)
		if len(number) >= 4 {
			details["card_last4"] = number[len(number)-4:]
		}
		details["card_holder"] = p.Card.Holder
		details["card_expiry"] = p.Card.Expiry
	}
	if p.Token != "" {
		details["payment_method"] = p.Token
	}
	if p.InstallmentPlan > 0 {
		details["installments"] = fmt.Sprint(p.InstallmentPlan)
	}
	return details
}

func onlyDigits(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
