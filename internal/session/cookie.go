package session

import (
	"crypto/sha256"
	"errors"
	"net/http"

	"cedra_storefront/internal/models"

	"github.com/gorilla/sessions"
)

const cookieName = "cedra_storefront"

var ErrNoSession = errors.New("aucune session")

// CookieStore persiste l'identité et ses jetons dans un cookie signé et chiffré.
type CookieStore struct {
	store *sessions.CookieStore
}

func NewCookieStore(secret []byte, secure bool) *CookieStore {
	// clé de signature = secret, clé de chiffrement AES-256 dérivée du secret
	blockKey := sha256.Sum256(append([]byte("cedra-block:"), secret...))
	store := sessions.NewCookieStore(secret, blockKey[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &CookieStore{store: store}
}

// Load relit l'identité depuis la requête.
func (c *CookieStore) Load(r *http.Request) (models.Identity, error) {
	sess, err := c.store.Get(r, cookieName)
	if err != nil {
		return models.Identity{}, err
	}

	identity := models.Identity{
		UserID:       stringValue(sess.Values["user_id"]),
		Email:        stringValue(sess.Values["email"]),
		Name:         stringValue(sess.Values["name"]),
		AccessToken:  stringValue(sess.Values["access"]),
		RefreshToken: stringValue(sess.Values["refresh"]),
	}
	if identity.UserID == "" {
		return models.Identity{}, ErrNoSession
	}
	return identity, nil
}

// Save écrit l'identité dans le cookie de réponse.
func (c *CookieStore) Save(r *http.Request, w http.ResponseWriter, identity models.Identity) error {
	sess, _ := c.store.Get(r, cookieName)
	sess.Values["user_id"] = identity.UserID
	sess.Values["email"] = identity.Email
	sess.Values["name"] = identity.Name
	sess.Values["access"] = identity.AccessToken
	sess.Values["refresh"] = identity.RefreshToken
	return sess.Save(r, w)
}

// Destroy expire le cookie (déconnexion).
func (c *CookieStore) Destroy(r *http.Request, w http.ResponseWriter) error {
	sess, _ := c.store.Get(r, cookieName)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}
