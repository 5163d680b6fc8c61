package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config regroupe les réglages lus dans l'environnement (après .env).
type Config struct {
	Port               string
	APIBaseURL         string
	APITimeout         time.Duration
	APICacheTTL        time.Duration
	CartDebounce       time.Duration
	RedisHost          string
	RedisPassword      string
	SessionSecret      string
	SecureCookies      bool
	StripeSecretKey    string
	CORSOrigins        []string
	Env                string
	LogLevel           string
	RateLimitPerMinute int
}

var ErrMissingSessionSecret = errors.New("SESSION_SECRET manquant dans .env")

// Load charge .env s'il existe puis lit la configuration.
func Load() (Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé — on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv lit la configuration via lookup (os.LookupEnv en production).
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	var errs []error
	duration := func(key, def string) time.Duration {
		d, err := time.ParseDuration(get(key, def))
		if err != nil {
			errs = append(errs, errors.New(key+": durée invalide"))
			d, _ = time.ParseDuration(def)
		}
		return d
	}

	cfg := Config{
		Port:            get("PORT", "8080"),
		APIBaseURL:      strings.TrimRight(get("API_BASE_URL", "http://localhost:8000/api"), "/"),
		APITimeout:      duration("API_TIMEOUT", "8s"),
		APICacheTTL:     duration("API_CACHE_TTL", "30s"),
		CartDebounce:    duration("CART_DEBOUNCE", "2s"),
		RedisHost:       get("REDIS_HOST", ""),
		RedisPassword:   get("REDIS_PASSWORD", ""),
		SessionSecret:   get("SESSION_SECRET", ""),
		StripeSecretKey: get("STRIPE_SECRET_KEY", ""),
		Env:             get("APP_ENV", "dev"),
		LogLevel:        get("LOG_LEVEL", "info"),
	}

	secure, err := strconv.ParseBool(get("SECURE_COOKIES", "false"))
	if err != nil {
		errs = append(errs, errors.New("SECURE_COOKIES: booléen invalide"))
	}
	cfg.SecureCookies = secure

	limit, err := strconv.Atoi(get("RATE_LIMIT_PER_MINUTE", "120"))
	if err != nil || limit < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE: entier positif attendu"))
		limit = 120
	}
	cfg.RateLimitPerMinute = limit

	for _, origin := range strings.Split(get("CORS_ORIGINS", ""), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	if cfg.SessionSecret == "" {
		errs = append(errs, ErrMissingSessionSecret)
	}
	return cfg, errors.Join(errs...)
}

func (c Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}
