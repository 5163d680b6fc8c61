package fakeapi

import (
	"net/http"
	"strconv"
	"strings"

	"cedra_storefront/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Server) createOrder(c *gin.Context) {
	var req models.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if req.Status != models.OrderStatusPending {
		c.JSON(http.StatusBadRequest, gin.H{"status": []string{"Statut initial invalide"}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	userID := c.GetString("user_id")
	if len(s.cartLocked(userID).lines) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide"})
		return
	}
	if req.CouponCode != "" {
		for i := range s.coupons {
			if strings.EqualFold(s.coupons[i].Code, req.CouponCode) {
				s.coupons[i].TimesUsed++
			}
		}
	}

	order := &models.Order{
		ID:              models.ID(strconv.Itoa(s.nextID())),
		Status:          models.OrderStatusPending,
		TotalAmount:     req.TotalAmount,
		ClientReference: req.ClientReference,
		CreatedAt:       s.now(),
	}
	s.orders[order.ID.String()] = order
	s.logger.Info("📦 Commande créée", zap.String("order_id", order.ID.String()), zap.String("user_id", userID))
	c.JSON(http.StatusCreated, order)
}

func (s *Server) getOrder(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) updateOrder(c *gin.Context) {
	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Statut requis"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}
	order.Status = input.Status
	c.JSON(http.StatusOK, order)
}

func (s *Server) processPayment(c *gin.Context) {
	var req models.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données de paiement invalides"})
		return
	}
	method := c.Param("method")

	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[req.OrderID.String()]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}
	if order.Status != models.OrderStatusPending {
		c.JSON(http.StatusConflict, gin.H{"error": "Commande déjà traitée"})
		return
	}
	if s.declined[method] {
		c.JSON(http.StatusOK, models.PaymentResult{Success: false, Message: "Paiement refusé par la banque"})
		return
	}

	order.Status = "paid"
	c.JSON(http.StatusOK, models.PaymentResult{Success: true, TransactionID: "tx_" + uuid.NewString()})
}
