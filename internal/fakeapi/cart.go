package fakeapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"cedra_storefront/internal/coupon"
	"cedra_storefront/internal/models"
	"cedra_storefront/internal/pricing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// cartLocked renvoie le panier de l'utilisateur, créé vide au besoin.
func (s *Server) cartLocked(userID string) *serverCart {
	cart, ok := s.carts[userID]
	if !ok {
		cart = &serverCart{}
		s.carts[userID] = cart
	}
	return cart
}

func (s *Server) itemsLocked(cart *serverCart) []models.CartItem {
	items := make([]models.CartItem, 0, len(cart.lines))
	for _, line := range cart.lines {
		p := s.products[line.ProductID]
		item := models.CartItem{
			ID:        models.ID(strconv.Itoa(line.ID)),
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.Image,
			SalePrice: p.SalePrice,
			Quantity:  line.Quantity,
		}
		if p.Price != nil {
			item.Price = *p.Price
		}
		items = append(items, item)
	}
	return items
}

// renderLocked produit la réponse panier ; le prix est imbriqué sous "product".
func (s *Server) renderLocked(userID string) gin.H {
	cart := s.cartLocked(userID)
	items := s.itemsLocked(cart)

	lines := make([]gin.H, 0, len(items))
	for _, item := range items {
		lines = append(lines, gin.H{
			"id":       item.ID,
			"quantity": item.Quantity,
			"product":  s.products[item.ProductID.String()],
		})
	}

	subtotal := pricing.LineSubtotal(items)
	shipping := s.shipping
	if len(items) == 0 {
		shipping = decimal.Zero
	}
	discount := pricing.Discount(subtotal, cart.coupon)
	var couponOut any
	if cart.coupon != nil {
		couponOut = cart.coupon
	}
	return gin.H{
		"items":    lines,
		"subtotal": subtotal.StringFixed(2),
		"tax":      "0.00",
		"shipping": shipping.StringFixed(2),
		"discount": discount.StringFixed(2),
		"total":    pricing.CartTotal(subtotal, shipping, decimal.Zero, discount).StringFixed(2),
		"coupon":   couponOut,
	}
}

func (s *Server) getCart(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.renderLocked(c.GetString("user_id")))
}

func (s *Server) product(c *gin.Context) {
	s.mu.Lock()
	p, ok := s.products[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// addItem renvoie le panier complet.
func (s *Server) addItem(c *gin.Context) {
	var input struct {
		ProductID models.ID `json:"product_id"`
		Quantity  int       `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if input.Quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[input.ProductID.String()]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	userID := c.GetString("user_id")
	cart := s.cartLocked(userID)
	for i := range cart.lines {
		if cart.lines[i].ProductID == input.ProductID.String() {
			cart.lines[i].Quantity += input.Quantity
			c.JSON(http.StatusOK, s.renderLocked(userID))
			return
		}
	}
	cart.lines = append(cart.lines, cartLine{ID: s.nextID(), ProductID: input.ProductID.String(), Quantity: input.Quantity})
	c.JSON(http.StatusCreated, s.renderLocked(userID))
}

// updateItem ne renvoie que la ligne modifiée, pas le panier.
func (s *Server) updateItem(c *gin.Context) {
	var input struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.Quantity < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"quantity": []string{"La quantité doit être au moins 1"}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.cartLocked(c.GetString("user_id"))
	line := findLine(cart, c.Param("id"))
	if line == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article introuvable"})
		return
	}
	if input.Quantity > 99 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Stock insuffisant"})
		return
	}
	line.Quantity = input.Quantity
	c.JSON(http.StatusOK, gin.H{"id": line.ID, "quantity": line.Quantity})
}

// deleteItem gère aussi /cart-items/clear/.
func (s *Server) deleteItem(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.cartLocked(c.GetString("user_id"))

	if c.Param("id") == "clear" {
		cart.lines = nil
		cart.coupon = nil
		c.Status(http.StatusNoContent)
		return
	}

	for i := range cart.lines {
		if strconv.Itoa(cart.lines[i].ID) == c.Param("id") {
			cart.lines = append(cart.lines[:i], cart.lines[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Article introuvable"})
}

func findLine(cart *serverCart, id string) *cartLine {
	for i := range cart.lines {
		if strconv.Itoa(cart.lines[i].ID) == id {
			return &cart.lines[i]
		}
	}
	return nil
}

func (s *Server) listCoupons(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	s.mu.Lock()
	all := append([]models.Coupon(nil), s.coupons...)
	s.mu.Unlock()

	start := (page - 1) * s.pageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + s.pageSize
	if end > len(all) {
		end = len(all)
	}

	var next *string
	if end < len(all) {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		u := fmt.Sprintf("%s://%s%s?page=%d", scheme, c.Request.Host, c.Request.URL.Path, page+1)
		next = &u
	}
	c.JSON(http.StatusOK, models.CouponPage{Count: len(all), Next: next, Results: all[start:end]})
}

// applyCoupon rejoue les règles du client puis le montant minimum d'achat.
func (s *Server) applyCoupon(c *gin.Context) {
	var input struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code coupon requis"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var found *models.Coupon
	for i := range s.coupons {
		if strings.EqualFold(s.coupons[i].Code, input.Code) {
			found = &s.coupons[i]
			break
		}
	}
	if found == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code coupon invalide"})
		return
	}
	if err := coupon.Check(found, s.now()); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("user_id")
	cart := s.cartLocked(userID)
	subtotal := pricing.LineSubtotal(s.itemsLocked(cart))
	if subtotal.LessThan(found.MinPurchase) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Montant minimum requis: %s€", found.MinPurchase.StringFixed(2))})
		return
	}

	applied := *found
	cart.coupon = &applied
	c.JSON(http.StatusOK, s.renderLocked(userID))
}

func (s *Server) removeCoupon(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID := c.GetString("user_id")
	s.cartLocked(userID).coupon = nil
	c.JSON(http.StatusOK, s.renderLocked(userID))
}
