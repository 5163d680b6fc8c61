// Package cart tient l'état du panier de l'identité connectée : lecture
// anti-rebond, mutations, coupon et totaux dérivés. Un Store par identité.
package cart

import (
	"context"
	"sync"
	"time"

	"cedra_storefront/internal/models"
	"cedra_storefront/internal/notify"
	"cedra_storefront/internal/pricing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultDebounce = 2 * time.Second

	cartEndpoint  = "/cart/"
	cartPrefix    = "/cart"
	itemsEndpoint = "/cart-items/"
)

type Options struct {
	Gateway  Gateway
	Identity IdentitySource
	Coupons  CouponVerifier
	Notifier notify.Notifier
	Logger   *zap.Logger
	Debounce time.Duration
	// Clock et Scheduler sont injectés pour tester l'anti-rebond sans attendre.
	Clock     func() time.Time
	Scheduler Scheduler
}

// Snapshot est la vue en lecture seule du panier, telle qu'affichée.
type Snapshot struct {
	Cart      *models.Cart      `json:"cart"`
	Items     []models.CartItem `json:"items"`
	Count     int               `json:"count"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
	Tax       decimal.Decimal   `json:"tax"`
	Shipping  decimal.Decimal   `json:"shipping"`
	Discount  decimal.Decimal   `json:"discount"`
	Total     decimal.Decimal   `json:"total"`
	Coupon    *models.Coupon    `json:"coupon,omitempty"`
	IsLoading bool              `json:"is_loading"`
	Error     string            `json:"error,omitempty"`
}

// Preview est l'aperçu de remise affiché avant confirmation serveur.
type Preview struct {
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

type Store struct {
	api       Gateway
	identity  IdentitySource
	coupons   CouponVerifier
	notifier  notify.Notifier
	logger    *zap.Logger
	debounce  time.Duration
	now       func() time.Time
	scheduler Scheduler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	cart      *models.Cart
	pending   int
	errMsg    string
	fetching  bool
	// refetch demande une relecture forcée dès la fin de la lecture en vol.
	refetch   bool
	clearing  bool
	lastFetch time.Time
	// epoch change à chaque changement d'identité : toute réponse d'une époque
	// précédente est ignorée.
	epoch       uint64
	deferred    Timer
	deferredSeq uint64
	listeners   map[int]func(Snapshot)
	nextID      int
	closed      bool
}

func NewStore(opts Options) *Store {
	s := &Store{
		api:       opts.Gateway,
		identity:  opts.Identity,
		coupons:   opts.Coupons,
		notifier:  opts.Notifier,
		logger:    opts.Logger,
		debounce:  opts.Debounce,
		now:       opts.Clock,
		scheduler: opts.Scheduler,
		listeners: make(map[int]func(Snapshot)),
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.debounce <= 0 {
		s.debounce = DefaultDebounce
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.scheduler == nil {
		s.scheduler = realScheduler{}
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Snapshot renvoie une copie de l'état courant.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Items:     []models.CartItem{},
		IsLoading: s.pending > 0,
		Error:     s.errMsg,
	}
	if s.cart == nil {
		return snap
	}
	c := s.cart.Clone()
	snap.Cart = c
	snap.Items = c.Items
	snap.Count = c.Count()
	snap.Subtotal = c.Subtotal
	snap.Tax = c.Tax
	snap.Shipping = c.Shipping
	snap.Discount = c.Discount
	snap.Total = c.Total
	snap.Coupon = c.Coupon
	return snap
}

// Subscribe enregistre un observateur appelé après chaque changement d'état.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// changed diffuse l'état courant, hors verrou.
func (s *Store) changed() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	listeners := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// PreviewTotal calcule remise et total qu'aurait le panier avec ce coupon.
func (s *Store) PreviewTotal(c *models.Coupon) Preview {
	s.mu.Lock()
	var subtotal, shipping decimal.Decimal
	if s.cart != nil {
		subtotal, shipping = s.cart.Subtotal, s.cart.Shipping
	}
	s.mu.Unlock()

	return Preview{
		Discount: pricing.Discount(subtotal, c),
		Total:    pricing.Total(subtotal, shipping, c),
	}
}

// IdentityChanged remet l'état à zéro puis recharge le panier si quelqu'un est connecté.
// Branché sur session.Provider.Subscribe.
func (s *Store) IdentityChanged(identity models.Identity, present bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.resetLocked()
	s.mu.Unlock()
	s.changed()

	if !present {
		s.logger.Info("🛒 Panier vidé (déconnexion)")
		return
	}
	s.logger.Info("🛒 Nouvelle identité, rechargement du panier", zap.String("user_id", identity.UserID))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.FetchCart(s.ctx, true); err != nil {
			s.logger.Debug("chargement initial du panier échoué", zap.Error(err))
		}
	}()
}

// Close arrête le fetch différé et attend les chargements en cours.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.cancelDeferredLocked()
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
}

func (s *Store) resetLocked() {
	s.epoch++
	s.cart = nil
	s.pending = 0
	s.errMsg = ""
	s.fetching = false
	s.refetch = false
	s.clearing = false
	s.lastFetch = time.Time{}
	s.cancelDeferredLocked()
}

func (s *Store) cancelDeferredLocked() {
	if s.deferred != nil {
		s.deferred.Stop()
		s.deferred = nil
	}
	s.deferredSeq++
}

// beginLocked marque une opération en cours et renvoie l'époque à laquelle elle appartient.
func (s *Store) beginLocked() uint64 {
	s.pending++
	return s.epoch
}

// end termine l'opération ; sans effet si l'identité a changé entre-temps.
func (s *Store) end(epoch uint64, after func()) {
	s.mu.Lock()
	if s.epoch == epoch {
		if after != nil {
			after()
		}
		if s.pending > 0 {
			s.pending--
		}
	}
	s.mu.Unlock()
	s.changed()
}

// adoptLocked remplace le panier par une réponse serveur complète.
func (s *Store) adoptLocked(c *models.Cart) {
	s.cart = c
	s.errMsg = ""
	s.lastFetch = s.now()
}

func (s *Store) signedIn() bool {
	if s.identity == nil {
		return false
	}
	_, ok := s.identity.Current()
	return ok
}
