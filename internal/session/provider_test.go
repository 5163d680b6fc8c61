package session

import (
	"net/http/httptest"
	"testing"
	"time"

	"cedra_storefront/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

func TestProviderNotifiesListeners(t *testing.T) {
	p := NewProvider()

	var events []bool
	unsubscribe := p.Subscribe(func(_ models.Identity, ok bool) {
		events = append(events, ok)
	})

	p.Set(models.Identity{UserID: "u1"})
	p.Clear()
	p.Clear()

	if len(events) != 2 || !events[0] || events[1] {
		t.Fatalf("expected [true false], got %v", events)
	}

	unsubscribe()
	p.Set(models.Identity{UserID: "u2"})
	if len(events) != 2 {
		t.Fatalf("listener called after unsubscribe: %v", events)
	}
}

func TestProviderCredentials(t *testing.T) {
	p := NewProvider()
	p.SetAccessToken("ignored")
	if p.AccessToken() != "" {
		t.Fatal("no token should be stored without identity")
	}

	p.Set(models.Identity{UserID: "u1", AccessToken: "a", RefreshToken: "r"})
	p.SetAccessToken("b")

	if p.AccessToken() != "b" || p.RefreshToken() != "r" {
		t.Fatalf("expected tokens b/r, got %q / %q", p.AccessToken(), p.RefreshToken())
	}
	if id, _ := p.Current(); id.AccessToken != "b" {
		t.Fatalf("current identity kept stale token %q", id.AccessToken)
	}

	p.Invalidate()
	if _, ok := p.Current(); ok {
		t.Fatal("identity must be gone after Invalidate")
	}
}

func TestIdentityFromTokens(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "42",
		"email":   "ada@example.com",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	access, _ := token.SignedString([]byte("secret"))

	identity, err := IdentityFromTokens(access, "refresh")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if identity.UserID != "42" || identity.Email != "ada@example.com" || identity.RefreshToken != "refresh" {
		t.Fatalf("unexpected identity %+v", identity)
	}

	noUser := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"email": "x@example.com"})
	bad, _ := noUser.SignedString([]byte("secret"))
	if _, err := IdentityFromTokens(bad, ""); err != ErrMissingUserID {
		t.Fatalf("expected ErrMissingUserID, got %v", err)
	}
}

func TestCookieStoreRoundTrip(t *testing.T) {
	store := NewCookieStore([]byte("0123456789abcdef0123456789abcdef"), false)
	identity := models.Identity{UserID: "u1", Email: "a@b.c", AccessToken: "acc", RefreshToken: "ref"}

	req := httptest.NewRequest("POST", "/api/auth/login", nil)
	rec := httptest.NewRecorder()
	if err := store.Save(req, rec, identity); err != nil {
		t.Fatalf("save: %v", err)
	}

	next := httptest.NewRequest("GET", "/api/cart", nil)
	for _, c := range rec.Result().Cookies() {
		next.AddCookie(c)
	}
	got, err := store.Load(next)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != identity {
		t.Fatalf("expected %+v, got %+v", identity, got)
	}

	if _, err := store.Load(httptest.NewRequest("GET", "/api/cart", nil)); err != ErrNoSession {
		t.Fatalf("expected ErrNoSession without cookie, got %v", err)
	}
}
