package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"cedra_storefront/internal/cache"
	"cedra_storefront/internal/fakeapi"
	"cedra_storefront/internal/gateway"
	"cedra_storefront/internal/handlers"
	"cedra_storefront/internal/session"
	"cedra_storefront/internal/storefront"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func (c *client) do(method, path string, body any) (int, map[string]any) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req, _ := http.NewRequest(method, c.base+path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := map[string]any{}
	if resp.Header.Get("Content-Type") == "image/png" {
		data, _ := io.ReadAll(resp.Body)
		out["png"] = bytes.HasPrefix(data, []byte("\x89PNG"))
		return resp.StatusCode, out
	}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func newStorefront(t *testing.T) *client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	remote := httptest.NewServer(fakeapi.New(fakeapi.Options{}).Handler())
	t.Cleanup(remote.Close)

	logger := zap.NewNop()
	limits := cache.NewMemoryStore()
	reg := storefront.NewRegistry(testConfig(remote.URL, limits))
	t.Cleanup(reg.Shutdown)
	cookies := session.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"), false)

	r := gin.New()
	RegisterRoutes(r, Deps{
		Auth: &handlers.Auth{
			API:      gateway.New(gateway.Options{BaseURL: remote.URL}),
			Registry: reg,
			Cookies:  cookies,
			Logger:   logger,
		},
		Registry:  reg,
		Cookies:   cookies,
		Limits:    limits,
		PerMinute: 100,
		Logger:    logger,
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, _ := cookiejar.New(nil)
	return &client{t: t, base: srv.URL, http: &http.Client{Jar: jar, Timeout: 5 * time.Second}}
}

func testConfig(baseURL string, c cache.Store) storefront.Config {
	return storefront.Config{BaseURL: baseURL, Cache: c, Timeout: 2 * time.Second, Debounce: 20 * time.Millisecond}
}

func TestRequiresSession(t *testing.T) {
	c := newStorefront(t)
	if code, _ := c.do(http.MethodGet, "/api/cart", nil); code != http.StatusUnauthorized {
		t.Fatalf("code = %d", code)
	}
	if code, _ := c.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "ana@example.com", "password": "faux"}); code != http.StatusUnauthorized {
		t.Fatalf("bad password code = %d", code)
	}
}

func TestCheckoutOverHTTP(t *testing.T) {
	c := newStorefront(t)

	if code, body := c.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "ana@example.com", "password": "secret"}); code != http.StatusOK {
		t.Fatalf("login: %d %v", code, body)
	}

	code, body := c.do(http.MethodPost, "/api/cart/items", map[string]any{"product_id": "7", "quantity": 2})
	if code != http.StatusOK || body["count"].(float64) != 2 {
		t.Fatalf("add: %d %v", code, body)
	}

	code, body = c.do(http.MethodPost, "/api/cart/coupon", map[string]string{"code": "OFF"})
	if code != http.StatusBadRequest || body["reason"] != "inactive" || body["error"] != "Ce coupon n'est plus actif" {
		t.Fatalf("inactive coupon: %d %v", code, body)
	}

	code, body = c.do(http.MethodPost, "/api/cart/coupon/preview", map[string]string{"code": "FIXE20"})
	if code != http.StatusOK || body["total"] != "180" {
		t.Fatalf("preview: %d %v", code, body)
	}

	code, body = c.do(http.MethodPost, "/api/cart/coupon", map[string]string{"code": "save10"})
	cart, _ := body["cart"].(map[string]any)
	if code != http.StatusOK || cart["total"] != "180" {
		t.Fatalf("apply: %d %v", code, body)
	}

	if code, body := c.do(http.MethodPost, "/api/checkout/next", nil); code != http.StatusBadRequest || body["field"] != "shipping_address" {
		t.Fatalf("next without address: %d %v", code, body)
	}

	address := map[string]string{"full_name": "Ana Martin", "street": "3 rue des Lilas", "city": "Lyon", "postal_code": "69003", "country": "FR"}
	c.do(http.MethodPut, "/api/checkout/shipping", map[string]any{"address": address})
	c.do(http.MethodPut, "/api/checkout/billing", map[string]any{"same_as_shipping": true})
	c.do(http.MethodPut, "/api/checkout/payment", map[string]any{
		"method": "card",
		"card":   map[string]string{"holder": "Ana Martin", "number": "4242424242424242", "expiry": "12/39", "cvc": "123"},
	})
	if code, body := c.do(http.MethodPost, "/api/checkout/step/review", nil); code != http.StatusOK || body["step"] != "review" {
		t.Fatalf("goto review: %d %v", code, body)
	}

	code, body = c.do(http.MethodPost, "/api/checkout/submit", nil)
	if code != http.StatusCreated {
		t.Fatalf("submit: %d %v", code, body)
	}

	if code, body := c.do(http.MethodGet, "/api/checkout/confirmation/qr?size=128", nil); code != http.StatusOK || body["png"] != true {
		t.Fatalf("qr: %d %v", code, body)
	}

	code, body = c.do(http.MethodGet, "/api/cart", nil)
	if code != http.StatusOK || body["count"].(float64) != 0 {
		t.Fatalf("cart after order: %d %v", code, body)
	}

	if code, _ := c.do(http.MethodPost, "/api/auth/logout", nil); code != http.StatusOK {
		t.Fatalf("logout: %d", code)
	}
	if code, _ := c.do(http.MethodGet, "/api/cart", nil); code != http.StatusUnauthorized {
		t.Fatalf("cart after logout: %d", code)
	}
}
