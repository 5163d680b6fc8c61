package middleware

import (
	"fmt"
	"net/http"
	"time"

	"cedra_storefront/internal/cache"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const rateWindow = time.Minute

// RateLimit limite les requêtes par identité (ou par IP sans session) sur une minute glissante.
// perMinute <= 0 désactive la limite.
func RateLimit(store cache.Store, perMinute int, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if perMinute <= 0 {
			c.Next()
			return
		}

		who := c.GetString("user_id")
		if who == "" {
			who = "ip:" + c.ClientIP()
		}
		key := "ratelimit:" + who

		count, err := store.Incr(c.Request.Context(), key, rateWindow)
		if err != nil {
			logger.Warn("⚠️ Compteur de débit indisponible", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", perMinute))
		remaining := int64(perMinute) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if count > int64(perMinute) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop de requêtes. Réessayez dans 1 minute",
				"retry_after": int(rateWindow.Seconds()),
			})
			return
		}
		c.Next()
	}
}
