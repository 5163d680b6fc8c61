package pa

import (
	"errors"
	"net/http"

	"cedra_storefront/internal/checkout"
	"cedra_storefront/internal/middleware"

	"github.com/gin-gonic/gin"
)

// checkoutState répond avec l'état courant du tunnel de la session.
func checkoutState(c *gin.Context, status int) {
	c.JSON(status, middleware.CurrentSession(c).Checkout.State())
}

func stepError(c *gin.Context, err error) {
	if errors.Is(err, checkout.ErrNotReady) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	var verr *checkout.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field, "step": verr.Step.String()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur étape de commande"})
}
