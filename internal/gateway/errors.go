package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthenticated : 401 après la tentative de rafraîchissement du jeton.
	ErrUnauthenticated = errors.New("session expirée, veuillez vous reconnecter")
	// ErrTimeout : la requête a dépassé le délai de la passerelle.
	ErrTimeout = errors.New("la requête a expiré")
	// ErrNetwork : échec de transport (DNS, connexion refusée...).
	ErrNetwork = errors.New("erreur réseau")
)

// HTTPError est une réponse non-2xx de l'API distante.
type HTTPError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("erreur serveur (HTTP %d)", e.Status)
}

// StatusCode renvoie le code HTTP porté par err, ou 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}

// parseErrorBody extrait le message structuré renvoyé par le serveur.
// Clés reconnues : "error", "detail", "message", puis la première erreur de champ.
func parseErrorBody(status int, body []byte) *HTTPError {
	httpErr := &HTTPError{Status: status, Body: body}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return httpErr
	}

	for _, key := range []string{"error", "detail", "message"} {
		if raw, ok := payload[key]; ok {
			if msg := firstString(raw); msg != "" {
				httpErr.Message = msg
				return httpErr
			}
		}
	}

	for field, raw := range payload {
		if msg := firstString(raw); msg != "" {
			httpErr.Message = field + ": " + msg
			return httpErr
		}
	}
	return httpErr
}

func firstString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return strings.TrimSpace(list[0])
	}
	return ""
}
