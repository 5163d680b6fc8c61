package routes

import (
	"cedra_storefront/internal/cache"
	"cedra_storefront/internal/handlers"
	pa "cedra_storefront/internal/handlers/payement"
	"cedra_storefront/internal/handlers/user"
	"cedra_storefront/internal/middleware"
	"cedra_storefront/internal/session"
	"cedra_storefront/internal/storefront"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Deps struct {
	Auth        *handlers.Auth
	Registry    *storefront.Registry
	Cookies     *session.CookieStore
	Limits      cache.Store
	PerMinute   int
	CORSOrigins []string
	Logger      *zap.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	api := r.Group("/api")

	// Auth
	auth := api.Group("/auth")
	auth.POST("/login", middleware.RateLimit(d.Limits, d.PerMinute, d.Logger), d.Auth.Login)
	auth.POST("/logout", d.Auth.Logout)

	authed := api.Group("", middleware.SessionRequired(d.Cookies, d.Registry, d.Logger))
	authed.GET("/auth/me", handlers.Me)

	// Panier
	cart := authed.Group("/cart")
	{
		cart.GET("", user.GetCart)
		cart.GET("/ws", user.CartWebSocket(d.CORSOrigins, d.Logger))

		mutations := cart.Group("", middleware.RateLimit(d.Limits, d.PerMinute, d.Logger))
		mutations.DELETE("", user.ClearCart)
		mutations.POST("/items", user.AddToCart)
		mutations.PATCH("/items/:id", user.UpdateCartQuantity)
		mutations.DELETE("/items/:id", user.RemoveFromCart)

		mutations.POST("/coupon", pa.ApplyCoupon)
		mutations.DELETE("/coupon", pa.RemoveCoupon)
		mutations.POST("/coupon/preview", pa.PreviewCoupon)
	}

	// Tunnel de commande
	checkout := authed.Group("/checkout")
	{
		checkout.GET("", pa.GetCheckout)
		checkout.DELETE("", pa.ResetCheckout)
		checkout.GET("/payment-methods", pa.PaymentMethods)
		checkout.PUT("/shipping", pa.SetShipping)
		checkout.PUT("/billing", pa.SetBilling)
		checkout.PUT("/payment", pa.SetPayment)
		checkout.POST("/next", pa.NextStep)
		checkout.POST("/back", pa.PreviousStep)
		checkout.POST("/step/:step", pa.GoToStep)
		checkout.POST("/submit", middleware.RateLimit(d.Limits, d.PerMinute, d.Logger), pa.Checkout)
		checkout.GET("/confirmation/qr", pa.OrderQRCode)
	}
}
