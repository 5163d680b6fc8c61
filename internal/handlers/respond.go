// Package handlers expose le panier et le tunnel de commande à la présentation (JSON).
package handlers

import (
	"errors"
	"net/http"

	"cedra_storefront/internal/cart"
	"cedra_storefront/internal/checkout"
	"cedra_storefront/internal/coupon"
	"cedra_storefront/internal/gateway"

	"github.com/gin-gonic/gin"
)

// Respond traduit une erreur métier en réponse JSON : message serveur ou
// message de validation quand il existe, fallback sinon.
func Respond(c *gin.Context, err error, fallback string) {
	var (
		httpErr     *gateway.HTTPError
		couponErr   *coupon.InvalidError
		checkoutErr *checkout.ValidationError
	)

	switch {
	case errors.As(err, &couponErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": couponErr.Message, "reason": couponErr.Reason})
	case errors.As(err, &checkoutErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": checkoutErr.Message, "field": checkoutErr.Field, "step": checkoutErr.Step.String()})
	case errors.Is(err, cart.ErrNotAuthenticated), errors.Is(err, gateway.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Veuillez vous connecter"})
	case errors.Is(err, checkout.ErrSubmitInProgress), errors.Is(err, checkout.ErrCartBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, checkout.ErrNotReady), errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, checkout.ErrNoOrder):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, checkout.ErrPaymentFailed):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, gateway.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "La requête a expiré, veuillez réessayer"})
	case errors.Is(err, gateway.ErrNetwork):
		c.JSON(http.StatusBadGateway, gin.H{"error": fallback})
	case errors.As(err, &httpErr) && httpErr.Status < 500:
		msg := httpErr.Message
		if msg == "" {
			msg = fallback
		}
		c.JSON(httpErr.Status, gin.H{"error": msg})
	case errors.As(err, &httpErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": fallback})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
