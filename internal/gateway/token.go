package gateway

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expirySkew anticipe le rafraîchissement pour éviter un 401 évitable.
const expirySkew = 10 * time.Second

// tokenExpired lit le claim "exp" sans vérifier la signature (seul le serveur la vérifie).
// Un jeton opaque ou sans "exp" est considéré valide : le 401 tranchera.
func tokenExpired(token string) bool {
	if token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Now().Add(expirySkew).After(exp.Time)
}
