package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(map[string]string{"SESSION_SECRET": "s3cr3t"}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Port != "8080" || cfg.APIBaseURL != "http://localhost:8000/api" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.APITimeout != 8*time.Second || cfg.APICacheTTL != 30*time.Second || cfg.CartDebounce != 2*time.Second {
		t.Fatalf("durations = %s %s %s", cfg.APITimeout, cfg.APICacheTTL, cfg.CartDebounce)
	}
	if cfg.RateLimitPerMinute != 120 || cfg.SecureCookies || cfg.IsProduction() {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(map[string]string{
		"SESSION_SECRET": "s3cr3t",
		"API_BASE_URL":   "https://api.cedra.fr/api/",
		"CART_DEBOUNCE":  "500ms",
		"CORS_ORIGINS":   "https://cedra.fr, https://www.cedra.fr",
		"SECURE_COOKIES": "true",
		"APP_ENV":        "prod",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.APIBaseURL != "https://api.cedra.fr/api" || cfg.CartDebounce != 500*time.Millisecond {
		t.Fatalf("cfg = %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://www.cedra.fr" {
		t.Fatalf("origins = %v", cfg.CORSOrigins)
	}
	if !cfg.SecureCookies || !cfg.IsProduction() {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestFromEnvErrors(t *testing.T) {
	_, err := FromEnv(lookupFrom(map[string]string{"API_TIMEOUT": "huit"}))
	if !errors.Is(err, ErrMissingSessionSecret) {
		t.Fatalf("err = %v, want missing secret", err)
	}
	if err == nil || !strings.Contains(err.Error(), "API_TIMEOUT") {
		t.Fatalf("err = %v, want API_TIMEOUT", err)
	}
}
