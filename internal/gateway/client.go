// Package gateway est la passerelle vers l'API REST distante : jeton bearer,
// rafraîchissement unique sur 401, délai maximal par requête et cache court des GET.
package gateway

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"cedra_storefront/internal/cache"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTimeout  = 8 * time.Second
	DefaultCacheTTL = 30 * time.Second

	refreshEndpoint = "/auth/token/refresh/"
)

// Credentials fournit les jetons de l'identité courante.
type Credentials interface {
	AccessToken() string
	RefreshToken() string
	SetAccessToken(token string)
	// Invalidate est appelé quand le rafraîchissement échoue : l'identité disparaît.
	Invalidate()
}

type Options struct {
	BaseURL     string
	HTTPClient  *http.Client
	Timeout     time.Duration
	CacheTTL    time.Duration
	Cache       cache.Store
	Credentials Credentials
	// Scope isole les entrées de cache d'une identité (en général l'user_id).
	Scope  string
	Logger *zap.Logger
}

type Client struct {
	baseURL  string
	http     *http.Client
	timeout  time.Duration
	cacheTTL time.Duration
	cache    cache.Store
	creds    Credentials
	scope    string
	logger   *zap.Logger
	flight   singleflight.Group

	// generations compte les invalidations par préfixe (clé de cache "scope|préfixe") ;
	// un GET dont la génération a bougé pendant le vol n'écrit pas dans le cache.
	genMu       sync.Mutex
	generations map[string]uint64
	inflight    map[string]int
}

func New(opts Options) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		http:     opts.HTTPClient,
		timeout:  opts.Timeout,
		cacheTTL: opts.CacheTTL,
		cache:    opts.Cache,
		creds:    opts.Credentials,
		scope:    opts.Scope,
		logger:   opts.Logger,

		generations: make(map[string]uint64),
		inflight:    make(map[string]int),
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.cacheTTL <= 0 {
		c.cacheTTL = DefaultCacheTTL
	}
	if c.cache == nil {
		c.cache = cache.NewMemoryStore()
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Get exécute un GET mis en cache ; les GET identiques simultanés partagent une seule requête.
func (c *Client) Get(ctx context.Context, endpoint string, out any) error {
	key := c.cacheKey(http.MethodGet, endpoint, nil)

	if data, err := c.cache.Get(ctx, key); err == nil {
		return decode(data, out)
	}

	v, err, _ := c.flight.Do(key, func() (any, error) {
		gen := c.enter(key)
		defer c.leave(key)

		// requête partagée : détachée de l'annulation du premier appelant, bornée par c.timeout
		data, err := c.send(context.WithoutCancel(ctx), http.MethodGet, endpoint, nil, true)
		if err != nil {
			return nil, err
		}
		if !c.stillCurrent(key, gen) {
			c.logger.Debug("réponse antérieure à une invalidation, non mise en cache", zap.String("key", key))
			return data, nil
		}
		if err := c.cache.Set(context.WithoutCancel(ctx), key, data, c.cacheTTL); err != nil {
			c.logger.Warn("⚠️ Écriture cache impossible", zap.String("key", key), zap.Error(err))
		}
		return data, nil
	})
	if err != nil {
		return err
	}
	return decode(v.([]byte), out)
}

// Mutate exécute un POST/PUT/PATCH/DELETE puis invalide le cache de la ressource touchée.
func (c *Client) Mutate(ctx context.Context, method, endpoint string, body, out any) error {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return fmt.Errorf("gateway: méthode %s non supportée pour une mutation", method)
	}

	data, err := c.send(ctx, method, endpoint, body, true)
	if err != nil {
		return err
	}
	c.Invalidate(ResourcePrefix(endpoint))
	return decode(data, out)
}

// Do exécute une requête sans jeton ni cache (connexion).
func (c *Client) Do(ctx context.Context, method, endpoint string, body, out any) error {
	data, err := c.send(ctx, method, endpoint, body, false)
	if err != nil {
		return err
	}
	return decode(data, out)
}

// Invalidate supprime de façon synchrone les entrées de cache dont l'endpoint commence par prefix.
// Les GET déjà en vol sous ce préfixe ne rempliront pas le cache et ne sont plus
// partagés avec les appels suivants.
func (c *Client) Invalidate(prefix string) {
	scoped := c.scope + "|" + prefix

	c.genMu.Lock()
	c.generations[scoped]++
	for key := range c.inflight {
		if strings.HasPrefix(key, scoped) {
			c.flight.Forget(key)
		}
	}
	c.genMu.Unlock()

	if err := c.cache.DeletePrefix(context.Background(), scoped); err != nil {
		c.logger.Warn("⚠️ Invalidation cache impossible", zap.String("prefix", prefix), zap.Error(err))
	}
}

// generationLocked additionne les compteurs des préfixes couvrant key ; ils ne
// font que croître, la somme change donc dès qu'un de ces préfixes est invalidé.
func (c *Client) generationLocked(key string) uint64 {
	var gen uint64
	for prefix, n := range c.generations {
		if strings.HasPrefix(key, prefix) {
			gen += n
		}
	}
	return gen
}

func (c *Client) enter(key string) uint64 {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	c.inflight[key]++
	return c.generationLocked(key)
}

func (c *Client) leave(key string) {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	if c.inflight[key]--; c.inflight[key] <= 0 {
		delete(c.inflight, key)
	}
}

func (c *Client) stillCurrent(key string, gen uint64) bool {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	return c.generationLocked(key) == gen
}

// ResourcePrefix réduit un endpoint à sa ressource : "/cart-items/3/" → "/cart".
// "/cart" couvre ainsi "/cart/" et "/cart-items/".
func ResourcePrefix(endpoint string) string {
	path := strings.TrimPrefix(endpoint, "/")
	if i := strings.IndexAny(path, "/?"); i >= 0 {
		path = path[:i]
	}
	if i := strings.Index(path, "-"); i > 0 {
		path = path[:i]
	}
	return "/" + path
}

func (c *Client) cacheKey(method, endpoint string, payload []byte) string {
	endpoint = strings.TrimPrefix(endpoint, c.baseURL)
	sum := sha256.Sum256(payload)
	return c.scope + "|" + endpoint + "|" + method + "|" + hex.EncodeToString(sum[:8])
}

func (c *Client) send(ctx context.Context, method, endpoint string, body any, authenticated bool) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("gateway: encodage du corps: %w", err)
		}
	}

	if authenticated && c.creds != nil && tokenExpired(c.creds.AccessToken()) {
		if err := c.refresh(ctx); err != nil {
			return nil, err
		}
	}

	status, data, err := c.roundTrip(ctx, method, endpoint, payload, authenticated)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized && authenticated && c.creds != nil {
		c.logger.Info("🔄 401 reçu, rafraîchissement du jeton", zap.String("endpoint", endpoint))
		if err := c.refresh(ctx); err != nil {
			return nil, err
		}
		status, data, err = c.roundTrip(ctx, method, endpoint, payload, authenticated)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			c.creds.Invalidate()
			return nil, ErrUnauthenticated
		}
	}

	if status < 200 || status >= 300 {
		httpErr := parseErrorBody(status, data)
		c.logger.Warn("❌ Réponse en erreur",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Int("status", status),
			zap.String("message", httpErr.Message))
		return nil, httpErr
	}
	return data, nil
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint string, payload []byte, authenticated bool) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(endpoint), reader)
	if err != nil {
		return 0, nil, fmt.Errorf("gateway: requête invalide: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated && c.creds != nil {
		if token := c.creds.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, c.transportError(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, c.transportError(ctx, err)
	}
	return resp.StatusCode, data, nil
}

func (c *Client) transportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

// refresh échange le refresh token contre un nouvel access token, une seule fois.
func (c *Client) refresh(ctx context.Context) error {
	refreshToken := c.creds.RefreshToken()
	if refreshToken == "" {
		c.creds.Invalidate()
		return ErrUnauthenticated
	}

	payload, _ := json.Marshal(map[string]string{"refresh": refreshToken})
	status, data, err := c.roundTrip(ctx, http.MethodPost, refreshEndpoint, payload, false)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		c.logger.Warn("❌ Rafraîchissement du jeton refusé", zap.Int("status", status))
		c.creds.Invalidate()
		return ErrUnauthenticated
	}

	var resp struct {
		Access string `json:"access"`
	}
	if err := json.Unmarshal(data, &resp); err != nil || resp.Access == "" {
		c.creds.Invalidate()
		return ErrUnauthenticated
	}
	c.creds.SetAccessToken(resp.Access)
	return nil
}

func (c *Client) url(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return c.baseURL + endpoint
}

func decode(data []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("gateway: réponse illisible: %w", err)
	}
	return nil
}
