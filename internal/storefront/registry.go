// Package storefront assemble, pour chaque identité connectée, sa passerelle API,
// son panier et son tunnel de commande. Une Session naît à la connexion et
// disparaît à la déconnexion.
package storefront

import (
	"net/http"
	"sync"
	"time"

	"cedra_storefront/internal/cache"
	"cedra_storefront/internal/cart"
	"cedra_storefront/internal/checkout"
	"cedra_storefront/internal/coupon"
	"cedra_storefront/internal/gateway"
	"cedra_storefront/internal/models"
	"cedra_storefront/internal/notify"
	"cedra_storefront/internal/payment"
	"cedra_storefront/internal/session"

	"go.uber.org/zap"
)

type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	CacheTTL   time.Duration
	Debounce   time.Duration
	Cache      cache.Store
	Currency   string
	// Stripe active le processeur PaymentIntent (stripe.Key doit être renseignée).
	Stripe bool
	Logger *zap.Logger
}

// Session regroupe l'état d'une identité.
type Session struct {
	UserID   string
	Identity *session.Provider
	API      *gateway.Client
	Cart     *cart.Store
	Coupons  *coupon.Verifier
	Checkout *checkout.Orchestrator
	Notices  *notify.Hub
	Payments *payment.Registry

	unsubscribe []func()
}

type Registry struct {
	cfg Config

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(cfg Config) *Registry {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewMemoryStore()
	}
	return &Registry{cfg: cfg, sessions: make(map[string]*Session)}
}

// Open renvoie la session de l'identité, en la créant au besoin.
// Une session existante garde ses jetons (ils ont pu être rafraîchis depuis).
func (r *Registry) Open(identity models.Identity) *Session {
	s, _ := r.open(identity)
	return s
}

// Login ouvre la session et remplace l'identité : le panier est rechargé.
func (r *Registry) Login(identity models.Identity) *Session {
	s, created := r.open(identity)
	if !created {
		s.Identity.Set(identity)
	}
	return s
}

func (r *Registry) open(identity models.Identity) (*Session, bool) {
	r.mu.Lock()
	if s, ok := r.sessions[identity.UserID]; ok {
		r.mu.Unlock()
		return s, false
	}
	s := r.build(identity.UserID)
	r.sessions[identity.UserID] = s
	r.mu.Unlock()

	r.cfg.Logger.Info("🛍️ Session ouverte", zap.String("user_id", identity.UserID))
	s.Identity.Set(identity)
	return s, true
}

func (r *Registry) build(userID string) *Session {
	logger := r.cfg.Logger.With(zap.String("user_id", userID))
	provider := session.NewProvider()
	api := gateway.New(gateway.Options{
		BaseURL:     r.cfg.BaseURL,
		HTTPClient:  r.cfg.HTTPClient,
		Timeout:     r.cfg.Timeout,
		CacheTTL:    r.cfg.CacheTTL,
		Cache:       r.cfg.Cache,
		Credentials: provider,
		Scope:       userID,
		Logger:      logger,
	})
	hub := notify.NewHub()
	verifier := coupon.NewVerifier(api, logger)
	store := cart.NewStore(cart.Options{
		Gateway:  api,
		Identity: provider,
		Coupons:  verifier,
		Notifier: notify.Multi{hub, notify.Logger{L: logger}},
		Logger:   logger,
		Debounce: r.cfg.Debounce,
	})
	payments := r.payments(api, logger)

	s := &Session{
		UserID:   userID,
		Identity: provider,
		API:      api,
		Cart:     store,
		Coupons:  verifier,
		Notices:  hub,
		Payments: payments,
		Checkout: checkout.New(checkout.Options{
			Cart:     store,
			API:      api,
			Payments: payments,
			Logger:   logger,
			Currency: r.cfg.Currency,
		}),
	}
	s.unsubscribe = append(s.unsubscribe,
		provider.Subscribe(store.IdentityChanged),
		provider.Subscribe(func(_ models.Identity, present bool) {
			if !present {
				// jeton de rafraîchissement refusé : la session est close hors de la pile d'appel
				go r.Close(userID)
			}
		}),
	)
	return s
}

func (r *Registry) payments(api *gateway.Client, logger *zap.Logger) *payment.Registry {
	reg := payment.NewRegistry()
	for _, method := range []string{checkout.MethodCard, checkout.MethodPayPal, checkout.MethodInstallments, checkout.MethodCashOnDelivery} {
		reg.Register(method, payment.NewRemote(api, method))
	}
	if r.cfg.Stripe {
		reg.Register(checkout.MethodStripe, payment.NewStripe(r.cfg.Currency, logger))
	}
	return reg
}

func (r *Registry) Get(userID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	return s, ok
}

// Close déconnecte l'identité et libère sa session.
func (r *Registry) Close(userID string) {
	r.mu.Lock()
	s, ok := r.sessions[userID]
	delete(r.sessions, userID)
	r.mu.Unlock()
	if !ok {
		return
	}

	s.Identity.Clear()
	for _, unsubscribe := range s.unsubscribe {
		unsubscribe()
	}
	s.Cart.Close()
	r.cfg.Logger.Info("👋 Session fermée", zap.String("user_id", userID))
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Shutdown ferme toutes les sessions (arrêt du serveur).
func (r *Registry) Shutdown() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.Close(id)
	}
}
