package main

import (
	"fmt"
	"log"
	"net/http"

	"tillpoint/internal/api"
	"tillpoint/internal/api/handlers"
	"tillpoint/internal/api/middleware"
	"tillpoint/internal/engine/pairing"
	"tillpoint/internal/engine/tenancy"
	"tillpoint/internal/engine/webhooks"
	"tillpoint/internal/pkg/logger"
	"tillpoint/internal/platform/audit"
	"tillpoint/internal/platform/auth"
	"tillpoint/internal/platform/config"
	"tillpoint/internal/platform/database"
	"tillpoint/internal/platform/repositories"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	webhookRepo := repositories.NewWebhookRepository(db)
	tenancyRepo := tenancy.NewRepository(db)
	pairingRepo := pairing.NewRepository(db)

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT)
	auditLog := audit.NewLogger(db)
	tenancySvc := tenancy.NewService(tenancyRepo)
	registry := pairing.NewRegistry(pairingRepo, tenancySvc, cfg.Pairing)
	dispatcher := webhooks.NewDispatcher(webhookRepo, cfg.Webhooks.DeliveryTimeout)

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo, tokenSvc)
	orgHandler := handlers.NewOrgHandler(tenancySvc, auditLog)
	locationHandler := handlers.NewLocationHandler(tenancySvc, auditLog, dispatcher)
	deviceHandler := handlers.NewDeviceHandler(registry, auditLog, dispatcher)
	webhookHandler := handlers.NewWebhookHandler(webhookRepo, tenancySvc)
	healthHandler := handlers.NewHealthHandler(db)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc)
	deviceMiddleware := middleware.NewDeviceMiddleware(registry)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)

	router := api.NewRouter(&api.Dependencies{
		AuthHandler:      authHandler,
		OrgHandler:       orgHandler,
		LocationHandler:  locationHandler,
		DeviceHandler:    deviceHandler,
		WebhookHandler:   webhookHandler,
		HealthHandler:    healthHandler,
		AuthMiddleware:   authMiddleware,
		DeviceMiddleware: deviceMiddleware,
		RateLimiter:      rateLimiter,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Printf("Server starting on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
