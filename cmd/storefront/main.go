package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cedra_storefront/internal/cache"
	"cedra_storefront/internal/config"
	"cedra_storefront/internal/gateway"
	"cedra_storefront/internal/handlers"
	"cedra_storefront/internal/logger"
	"cedra_storefront/internal/middleware"
	"cedra_storefront/internal/routes"
	"cedra_storefront/internal/session"
	"cedra_storefront/internal/storefront"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("❌ Configuration invalide : ", err)
	}

	zlog, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatal("❌ Logger : ", err)
	}
	defer zlog.Sync()

	store := openCache(zlog, cfg)

	if cfg.StripeSecretKey != "" {
		stripe.Key = cfg.StripeSecretKey
		zlog.Info("✅ Stripe initialisé")
	} else {
		zlog.Warn("⚠️ STRIPE_SECRET_KEY absente, paiement Stripe désactivé")
	}

	httpClient := &http.Client{Transport: http.DefaultTransport}
	registry := storefront.NewRegistry(storefront.Config{
		BaseURL:    cfg.APIBaseURL,
		HTTPClient: httpClient,
		Timeout:    cfg.APITimeout,
		CacheTTL:   cfg.APICacheTTL,
		Debounce:   cfg.CartDebounce,
		Cache:      store,
		Currency:   "eur",
		Stripe:     cfg.StripeSecretKey != "",
		Logger:     zlog,
	})
	cookies := session.NewCookieStore([]byte(cfg.SessionSecret), cfg.SecureCookies)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.Recovery(zlog), middleware.RequestLogger(zlog))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	routes.RegisterRoutes(r, routes.Deps{
		Auth: &handlers.Auth{
			API: gateway.New(gateway.Options{
				BaseURL:    cfg.APIBaseURL,
				HTTPClient: httpClient,
				Timeout:    cfg.APITimeout,
				Logger:     zlog,
			}),
			Registry: registry,
			Cookies:  cookies,
			Logger:   zlog,
		},
		Registry:    registry,
		Cookies:     cookies,
		Limits:      store,
		PerMinute:   cfg.RateLimitPerMinute,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      zlog,
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		zlog.Info("🚀 Storefront Cedra lancé", zap.String("port", cfg.Port), zap.String("api", cfg.APIBaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("❌ Serveur HTTP", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("🛑 Arrêt en cours...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("❌ Arrêt du serveur HTTP", zap.Error(err))
	}
	registry.Shutdown()
	if closer, ok := store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	zlog.Info("✅ Storefront arrêté")
}

// openCache partage le cache via Redis si REDIS_HOST est défini, sinon reste en mémoire.
func openCache(zlog *zap.Logger, cfg config.Config) cache.Store {
	if cfg.RedisHost == "" {
		zlog.Info("ℹ️ Cache en mémoire (REDIS_HOST absent)")
		return cache.NewMemoryStore()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store, err := cache.NewRedisStore(ctx, cfg.RedisHost, cfg.RedisPassword)
	if err != nil {
		zlog.Warn("⚠️ Redis indisponible, repli sur le cache mémoire", zap.Error(err))
		return cache.NewMemoryStore()
	}
	zlog.Info("✅ Connexion Redis réussie", zap.String("addr", cfg.RedisHost))
	return store
}
