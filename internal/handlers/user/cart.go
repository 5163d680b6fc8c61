package user

import (
	"net/http"

	"cedra_storefront/internal/handlers"
	"cedra_storefront/internal/middleware"

	"github.com/gin-gonic/gin"
)

// GetCart renvoie l'état du panier. Le rechargement passe par l'anti-rebond ;
// ?refresh=1 force une relecture immédiate.
func GetCart(c *gin.Context) {
	s := middleware.CurrentSession(c)
	force := c.Query("refresh") == "1"
	if err := s.Cart.FetchCart(c.Request.Context(), force); err != nil && force {
		handlers.Respond(c, err, "Impossible de charger le panier")
		return
	}
	c.JSON(http.StatusOK, s.Cart.Snapshot())
}

//
// 🟢 POST /api/cart/items
//
func AddToCart(c *gin.Context) {
	var input struct {
		ProductID string `json:"product_id" binding:"required"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}
	if input.Quantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
		return
	}

	s := middleware.CurrentSession(c)
	if err := s.Cart.AddItem(c.Request.Context(), input.ProductID, input.Quantity); err != nil {
		handlers.Respond(c, err, "Impossible d'ajouter le produit au panier")
		return
	}
	c.JSON(http.StatusOK, s.Cart.Snapshot())
}

//
// 🟡 PATCH /api/cart/items/:id
//
func UpdateCartQuantity(c *gin.Context) {
	var input struct {
		Quantity int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.Quantity < 1 {
		// passer à 0 se fait par suppression explicite
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide (minimum 1)"})
		return
	}

	s := middleware.CurrentSession(c)
	if err := s.Cart.UpdateItemQuantity(c.Request.Context(), c.Param("id"), input.Quantity); err != nil {
		handlers.Respond(c, err, "Impossible de mettre à jour la quantité")
		return
	}
	c.JSON(http.StatusOK, s.Cart.Snapshot())
}

//
// 🔴 DELETE /api/cart/items/:id
//
func RemoveFromCart(c *gin.Context) {
	s := middleware.CurrentSession(c)
	if err := s.Cart.RemoveItem(c.Request.Context(), c.Param("id")); err != nil {
		handlers.Respond(c, err, "Impossible de retirer le produit")
		return
	}
	c.JSON(http.StatusOK, s.Cart.Snapshot())
}

//
// 🗑️ DELETE /api/cart
//
func ClearCart(c *gin.Context) {
	s := middleware.CurrentSession(c)
	if err := s.Cart.ClearCart(c.Request.Context()); err != nil {
		handlers.Respond(c, err, "Impossible de vider le panier")
		return
	}
	c.JSON(http.StatusOK, s.Cart.Snapshot())
}
