package middleware

import (
	"net/http"

	"cedra_storefront/internal/session"
	"cedra_storefront/internal/storefront"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionKey = "storefront_session"

// SessionRequired relit l'identité du cookie et attache la Session correspondante.
// Si les jetons ont été rafraîchis depuis, le cookie est réécrit.
func SessionRequired(cookies *session.CookieStore, reg *storefront.Registry, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := cookies.Load(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
			return
		}

		s := reg.Open(identity)
		current, ok := s.Identity.Current()
		if !ok {
			// session close après un rafraîchissement refusé
			reg.Close(identity.UserID)
			_ = cookies.Destroy(c.Request, c.Writer)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session expirée, veuillez vous reconnecter"})
			return
		}
		if current.AccessToken != identity.AccessToken {
			if err := cookies.Save(c.Request, c.Writer, current); err != nil {
				logger.Warn("⚠️ Cookie de session non réécrit", zap.Error(err))
			}
		}

		c.Set(sessionKey, s)
		c.Set("user_id", identity.UserID)
		c.Next()
	}
}

// CurrentSession renvoie la Session posée par SessionRequired.
func CurrentSession(c *gin.Context) *storefront.Session {
	s, _ := c.MustGet(sessionKey).(*storefront.Session)
	return s
}
