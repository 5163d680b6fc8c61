package cart

import (
	"errors"

	"cedra_storefront/internal/gateway"
)

var (
	ErrNotAuthenticated   = errors.New("veuillez vous connecter pour gérer votre panier")
	ErrUnexpectedResponse = errors.New("réponse du panier inattendue")
	ErrClosed             = errors.New("panier fermé")
)

// userMessage choisit le texte montré à l'utilisateur : message serveur structuré
// s'il existe, sinon un message générique.
func userMessage(err error, fallback string) string {
	var httpErr *gateway.HTTPError
	switch {
	case errors.As(err, &httpErr) && httpErr.Message != "":
		return httpErr.Message
	case errors.Is(err, gateway.ErrTimeout):
		return "La requête a expiré, veuillez réessayer"
	case errors.Is(err, gateway.ErrUnauthenticated):
		return "Votre session a expiré, veuillez vous reconnecter"
	default:
		return fallback
	}
}
