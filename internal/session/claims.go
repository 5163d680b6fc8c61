package session

import (
	"errors"
	"fmt"

	"cedra_storefront/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var ErrMissingUserID = errors.New("user_id manquant dans le jeton")

// IdentityFromTokens construit l'identité à partir des claims de l'access token
// (user_id, email, name). La signature est vérifiée par l'API, pas ici.
func IdentityFromTokens(access, refresh string) (models.Identity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, claims); err != nil {
		return models.Identity{}, fmt.Errorf("jeton illisible: %w", err)
	}

	userID := claimString(claims, "user_id")
	if userID == "" {
		userID = claimString(claims, "sub")
	}
	if userID == "" {
		return models.Identity{}, ErrMissingUserID
	}

	return models.Identity{
		UserID:       userID,
		Email:        claimString(claims, "email"),
		Name:         claimString(claims, "name"),
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}
