package fakeapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// Issue délivre une paire de jetons pour un compte connu (tests).
func (s *Server) Issue(email string) (access, refresh string, err error) {
	s.mu.Lock()
	acc, ok := s.accounts[email]
	s.mu.Unlock()
	if !ok {
		return "", "", fmt.Errorf("compte inconnu: %s", email)
	}
	if access, err = s.sign(acc, typeAccess); err != nil {
		return "", "", err
	}
	if refresh, err = s.sign(acc, typeRefresh); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (s *Server) sign(acc account, typ string) (string, error) {
	now := s.now()
	ttl := s.accessTTL
	if typ == typeRefresh {
		ttl = 7 * 24 * ttl
	}
	claims := jwt.MapClaims{
		"user_id": acc.ID,
		"email":   acc.Email,
		"name":    acc.Name,
		"typ":     typ,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
		"jti":     uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) parse(token, typ string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("méthode de signature inattendue: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || claims["typ"] != typ {
		return nil, errors.New("type de jeton invalide")
	}
	return claims, nil
}

func (s *Server) login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email et mot de passe requis"})
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[strings.ToLower(input.Email)]
	s.mu.Unlock()
	if !ok || acc.Password != input.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Identifiants invalides"})
		return
	}

	access, refresh, err := s.Issue(acc.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}
	s.logger.Info("🔑 Connexion", zap.String("user_id", acc.ID))
	c.JSON(http.StatusOK, gin.H{"access": access, "refresh": refresh})
}

func (s *Server) refresh(c *gin.Context) {
	var input struct {
		Refresh string `json:"refresh" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Refresh token requis"})
		return
	}

	claims, err := s.parse(input.Refresh, typeRefresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Refresh token invalide"})
		return
	}

	email, _ := claims["email"].(string)
	s.mu.Lock()
	acc, ok := s.accounts[email]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Compte introuvable"})
		return
	}

	access, err := s.sign(acc, typeAccess)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": access})
}

// requireAuth vérifie le bearer et place user_id dans le contexte.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		parts := strings.Split(c.GetHeader("Authorization"), " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Token manquant"})
			return
		}

		claims, err := s.parse(parts[1], typeAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Token invalide ou expiré"})
			return
		}

		userID, _ := claims["user_id"].(string)
		c.Set("user_id", userID)
		c.Next()
	}
}
