// Command fakeapi sert l'API boutique en mémoire pour développer le storefront sans backend.
package main

import (
	"log"
	"net/http"
	"os"

	"cedra_storefront/internal/fakeapi"
	"cedra_storefront/internal/logger"

	"go.uber.org/zap"
)

func main() {
	zlog, err := logger.New("dev", "debug")
	if err != nil {
		log.Fatal(err)
	}
	defer zlog.Sync()

	port := os.Getenv("FAKEAPI_PORT")
	if port == "" {
		port = "8000"
	}

	api := fakeapi.New(fakeapi.Options{Logger: zlog})
	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", api.Handler()))

	zlog.Info("🚀 API de test lancée", zap.String("port", port), zap.String("comptes", "ana@example.com, leo@example.com / secret"))
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		zlog.Fatal("❌ API de test", zap.Error(err))
	}
}
