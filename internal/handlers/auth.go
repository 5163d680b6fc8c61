package handlers

import (
	"net/http"

	"cedra_storefront/internal/gateway"
	"cedra_storefront/internal/middleware"
	"cedra_storefront/internal/session"
	"cedra_storefront/internal/storefront"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Auth gère connexion et déconnexion : les jetons de l'API distante vont
// dans le cookie de session, la Session du registre naît et meurt avec eux.
type Auth struct {
	API      *gateway.Client
	Registry *storefront.Registry
	Cookies  *session.CookieStore
	Logger   *zap.Logger
}

func (a *Auth) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email et mot de passe requis"})
		return
	}

	var tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := a.API.Do(c.Request.Context(), http.MethodPost, "/auth/token/", input, &tokens); err != nil {
		a.Logger.Info("❌ Connexion refusée", zap.String("email", input.Email), zap.Error(err))
		Respond(c, err, "Connexion impossible")
		return
	}

	identity, err := session.IdentityFromTokens(tokens.Access, tokens.Refresh)
	if err != nil {
		a.Logger.Error("❌ Jeton d'accès illisible", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Réponse d'authentification invalide"})
		return
	}

	a.Registry.Login(identity)
	if err := a.Cookies.Save(c.Request, c.Writer, identity); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création session"})
		return
	}

	a.Logger.Info("✅ Connexion réussie", zap.String("user_id", identity.UserID))
	c.JSON(http.StatusOK, gin.H{"message": "Connexion réussie", "user": identity})
}

func (a *Auth) Logout(c *gin.Context) {
	if identity, err := a.Cookies.Load(c.Request); err == nil {
		a.Registry.Close(identity.UserID)
	}
	_ = a.Cookies.Destroy(c.Request, c.Writer)
	c.JSON(http.StatusOK, gin.H{"message": "Déconnexion réussie"})
}

func Me(c *gin.Context) {
	identity, ok := middleware.CurrentSession(c).Identity.Current()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": identity})
}
