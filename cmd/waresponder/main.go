package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/andyrahman/waresponder/internal/brain"
	"github.com/andyrahman/waresponder/internal/config"
	"github.com/andyrahman/waresponder/internal/httpapi"
	"github.com/andyrahman/waresponder/internal/observability"
	"github.com/andyrahman/waresponder/internal/store"
	"github.com/andyrahman/waresponder/internal/webhook"
	"github.com/andyrahman/waresponder/internal/whatsapp"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	conversations, err := store.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("conversation store init failed: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Printf("warning: DATABASE_URL not configured: conversations are kept in memory and lost on restart")
	}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		conversations = store.NewCachedStore(conversations, rdb, cfg.RedisTTL)
		log.Printf("conversation cache: redis at %s", cfg.RedisAddr)
	}
	defer conversations.Close()

	adapter, err := brain.New(brain.Config{
		Mode:    cfg.BrainMode,
		HTTPURL: cfg.BrainHTTPURL,
		APIKey:  cfg.BrainAPIKey,
		Model:   cfg.BrainModel,
		Timeout: cfg.BrainTimeout,
	})
	if err != nil {
		log.Fatalf("brain adapter init failed: %v", err)
	}

	sender := whatsapp.NewSender(whatsapp.Config{
		BaseURL:       cfg.GraphAPIBaseURL,
		APIVersion:    cfg.GraphAPIVersion,
		PhoneNumberID: cfg.PhoneNumberID,
		AccessToken:   cfg.AccessToken,
		Simulated:     !cfg.DeliveryConfigured(),
	})
	if sender.Simulated() {
		log.Printf("whatsapp credentials not configured: outbound delivery is SIMULATED")
	}
	if !cfg.SignatureEnforced() {
		log.Printf("warning: WHATSAPP_APP_SECRET not configured: webhook signatures are NOT verified")
	}

	hub := httpapi.NewHub()
	pipeline := webhook.NewPipeline(webhook.Options{
		Store:             conversations,
		Brain:             adapter,
		Sender:            sender,
		Metrics:           metrics,
		Rules:             cfg.ReplyRules,
		AppSecret:         cfg.AppSecret,
		Enforce:           cfg.SignatureEnforced(),
		SimulatedDelivery: sender.Simulated(),
		OnTurn:            hub.Publish,
	})

	api := httpapi.New(cfg, pipeline, conversations, adapter, hub, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
