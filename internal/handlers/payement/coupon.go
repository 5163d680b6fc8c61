package pa

import (
	"net/http"

	"cedra_storefront/internal/handlers"
	"cedra_storefront/internal/middleware"

	"github.com/gin-gonic/gin"
)

type couponInput struct {
	Code string `json:"code" binding:"required"`
}

// ApplyCoupon vérifie puis applique un code ; les refus reviennent avec leur raison
// pour un affichage sous le champ.
func ApplyCoupon(c *gin.Context) {
	var input couponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code coupon requis", "reason": "not_found"})
		return
	}

	s := middleware.CurrentSession(c)
	applied, err := s.Cart.ApplyCoupon(c.Request.Context(), input.Code)
	if err != nil {
		handlers.Respond(c, err, "Impossible d'appliquer le code promo")
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupon": applied, "cart": s.Cart.Snapshot()})
}

func RemoveCoupon(c *gin.Context) {
	s := middleware.CurrentSession(c)
	if err := s.Cart.RemoveCoupon(c.Request.Context()); err != nil {
		handlers.Respond(c, err, "Impossible de retirer le code promo")
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": s.Cart.Snapshot()})
}

// PreviewCoupon affiche remise et total avec ce code, sans l'appliquer.
func PreviewCoupon(c *gin.Context) {
	var input couponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code coupon requis", "reason": "not_found"})
		return
	}

	s := middleware.CurrentSession(c)
	verified, err := s.Coupons.Verify(c.Request.Context(), input.Code)
	if err != nil {
		handlers.Respond(c, err, "Vérification du code impossible")
		return
	}
	preview := s.Cart.PreviewTotal(verified)
	c.JSON(http.StatusOK, gin.H{
		"coupon":   verified,
		"discount": preview.Discount,
		"total":    preview.Total,
	})
}
