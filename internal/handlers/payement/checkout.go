package pa

import (
	"net/http"
	"strconv"

	"cedra_storefront/internal/checkout"
	"cedra_storefront/internal/handlers"
	"cedra_storefront/internal/middleware"
	"cedra_storefront/internal/models"

	"github.com/gin-gonic/gin"
)

func GetCheckout(c *gin.Context) {
	checkoutState(c, http.StatusOK)
}

func SetShipping(c *gin.Context) {
	var input struct {
		Address models.Address `json:"address"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Adresse invalide"})
		return
	}
	middleware.CurrentSession(c).Checkout.SetShipping(input.Address)
	checkoutState(c, http.StatusOK)
}

func SetBilling(c *gin.Context) {
	var input struct {
		SameAsShipping bool            `json:"same_as_shipping"`
		Address        *models.Address `json:"address"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Adresse de facturation invalide"})
		return
	}
	middleware.CurrentSession(c).Checkout.SetBilling(input.Address, input.SameAsShipping)
	checkoutState(c, http.StatusOK)
}

func SetPayment(c *gin.Context) {
	var input checkout.PaymentSelection
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Moyen de paiement invalide"})
		return
	}
	middleware.CurrentSession(c).Checkout.SetPayment(input)
	checkoutState(c, http.StatusOK)
}

// PaymentMethods liste les méthodes que la session sait traiter.
func PaymentMethods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"methods": middleware.CurrentSession(c).Payments.Methods()})
}

func NextStep(c *gin.Context) {
	if _, err := middleware.CurrentSession(c).Checkout.Next(); err != nil {
		stepError(c, err)
		return
	}
	checkoutState(c, http.StatusOK)
}

func PreviousStep(c *gin.Context) {
	middleware.CurrentSession(c).Checkout.Back()
	checkoutState(c, http.StatusOK)
}

func GoToStep(c *gin.Context) {
	step, ok := checkout.ParseStep(c.Param("step"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Étape inconnue"})
		return
	}
	if err := middleware.CurrentSession(c).Checkout.GoTo(step); err != nil {
		stepError(c, err)
		return
	}
	checkoutState(c, http.StatusOK)
}

func ResetCheckout(c *gin.Context) {
	middleware.CurrentSession(c).Checkout.Reset()
	checkoutState(c, http.StatusOK)
}

// Checkout valide la commande : création puis paiement, panier vidé si tout passe.
func Checkout(c *gin.Context) {
	s := middleware.CurrentSession(c)
	order, err := s.Checkout.Submit(c.Request.Context())
	if err != nil {
		handlers.Respond(c, err, "Impossible de finaliser la commande")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Commande confirmée",
		"order":   order,
		"state":   s.Checkout.State(),
	})
}

// OrderQRCode renvoie le QR code PNG de la commande confirmée.
func OrderQRCode(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "256"))
	if size < 64 || size > 1024 {
		size = 256
	}
	png, err := middleware.CurrentSession(c).Checkout.ConfirmationQR(size)
	if err != nil {
		handlers.Respond(c, err, "QR code indisponible")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
