// Package fakeapi est une API boutique en mémoire : mêmes routes et mêmes formes
// de réponse que l'API distante, pour le développement local et les tests.
package fakeapi

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"cedra_storefront/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Options struct {
	Secret    []byte
	AccessTTL time.Duration
	PageSize  int
	Shipping  decimal.Decimal
	Clock     func() time.Time
	Logger    *zap.Logger
}

type account struct {
	ID       string
	Email    string
	Name     string
	Password string
}

type cartLine struct {
	ID        int
	ProductID string
	Quantity  int
}

type serverCart struct {
	lines  []cartLine
	coupon *models.Coupon
}

type Server struct {
	secret    []byte
	accessTTL time.Duration
	pageSize  int
	shipping  decimal.Decimal
	now       func() time.Time
	logger    *zap.Logger
	engine    *gin.Engine

	mu       sync.Mutex
	accounts map[string]account
	products map[string]models.Product
	coupons  []models.Coupon
	carts    map[string]*serverCart
	orders   map[string]*models.Order
	declined map[string]bool
	seq      int
	hits     map[string]int
}

func New(opts Options) *Server {
	s := &Server{
		secret:    opts.Secret,
		accessTTL: opts.AccessTTL,
		pageSize:  opts.PageSize,
		shipping:  opts.Shipping,
		now:       opts.Clock,
		logger:    opts.Logger,
		accounts:  make(map[string]account),
		products:  make(map[string]models.Product),
		carts:     make(map[string]*serverCart),
		orders:    make(map[string]*models.Order),
		declined:  make(map[string]bool),
		seq:       100,
		hits:      make(map[string]int),
	}
	if len(s.secret) == 0 {
		s.secret = []byte("fakeapi-dev-secret")
	}
	if s.accessTTL <= 0 {
		s.accessTTL = 15 * time.Minute
	}
	if s.pageSize <= 0 {
		s.pageSize = 2
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.seed()
	s.engine = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.count)

	r.POST("/auth/token/", s.login)
	r.POST("/auth/token/refresh/", s.refresh)
	r.GET("/products/:id/", s.product)

	authed := r.Group("/", s.requireAuth())
	{
		authed.GET("/cart/", s.getCart)
		authed.POST("/cart/apply-coupon/", s.applyCoupon)
		authed.DELETE("/cart/remove-coupon/", s.removeCoupon)

		authed.POST("/cart-items/", s.addItem)
		authed.PATCH("/cart-items/:id/", s.updateItem)
		authed.DELETE("/cart-items/:id/", s.deleteItem)

		authed.GET("/coupons/", s.listCoupons)

		authed.POST("/orders/", s.createOrder)
		authed.GET("/orders/:id/", s.getOrder)
		authed.PATCH("/orders/:id/", s.updateOrder)

		authed.POST("/payments/:method/process/", s.processPayment)
	}
	return r
}

// count tient le compte des appels par "MÉTHODE chemin".
func (s *Server) count(c *gin.Context) {
	s.mu.Lock()
	s.hits[c.Request.Method+" "+c.Request.URL.Path]++
	s.mu.Unlock()
	c.Next()
}

// Hits renvoie le nombre d'appels reçus pour "MÉTHODE chemin".
func (s *Server) Hits(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[key]
}

// Decline fait refuser les paiements d'une méthode.
func (s *Server) Decline(method string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.declined[method] = true
}

func (s *Server) AddCoupon(c models.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupons = append(s.coupons, c)
}

func (s *Server) AddProduct(p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID.String()] = p
}

// Order renvoie une commande connue du serveur.
func (s *Server) Order(id string) (models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return models.Order{}, false
	}
	return *o, true
}

// Orders renvoie toutes les commandes reçues, sans ordre garanti.
func (s *Server) Orders() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out
}

func (s *Server) nextID() int {
	s.seq++
	return s.seq
}

func (s *Server) seed() {
	now := s.now()
	from, to := now.AddDate(0, 0, -30), now.AddDate(0, 0, 30)
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 7)

	s.accounts["ana@example.com"] = account{ID: "42", Email: "ana@example.com", Name: "Ana Martin", Password: "secret"}
	s.accounts["leo@example.com"] = account{ID: "43", Email: "leo@example.com", Name: "Léo Petit", Password: "secret"}

	for _, p := range []struct {
		id, name, price, sale string
	}{
		{"7", "Lampe", "100.00", ""},
		{"9", "Mug", "12.50", "10.00"},
		{"11", "Affiche", "25.00", ""},
	} {
		price := decimal.RequireFromString(p.price)
		product := models.Product{ID: models.ID(p.id), Name: p.name, Image: fmt.Sprintf("/img/%s.jpg", p.id), Price: &price}
		if p.sale != "" {
			sale := decimal.RequireFromString(p.sale)
			product.SalePrice = &sale
		}
		s.products[p.id] = product
	}

	coupon := func(id, code string, t models.DiscountType, value string) models.Coupon {
		return models.Coupon{
			ID:            models.ID(id),
			Code:          code,
			DiscountType:  t,
			DiscountValue: decimal.RequireFromString(value),
			ValidFrom:     &from,
			ValidTo:       &to,
			IsActive:      true,
		}
	}
	save10 := coupon("1", "SAVE10", models.DiscountPercentage, "10")
	fixe20 := coupon("2", "FIXE20", models.DiscountFixed, "20")
	fixe20.MinPurchase = decimal.NewFromInt(50)
	old := coupon("3", "OLD", models.DiscountPercentage, "15")
	old.ValidTo = &past
	off := coupon("4", "OFF", models.DiscountPercentage, "50")
	off.IsActive = false
	soon := coupon("5", "SOON", models.DiscountFixed, "5")
	soon.ValidFrom = &future
	maxed := coupon("6", "MAXED", models.DiscountPercentage, "5")
	maxed.MaxUses, maxed.TimesUsed = 5, 5

	s.coupons = []models.Coupon{save10, fixe20, old, off, soon, maxed}
}
