package main

import (
	"log"
	"time"

	"tillpoint/internal/engine/pairing"
	"tillpoint/internal/engine/tenancy"
	"tillpoint/internal/pkg/logger"
	"tillpoint/internal/platform/config"
	"tillpoint/internal/platform/database"
	"tillpoint/internal/platform/repositories"
	"tillpoint/internal/workers"
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

	tenancySvc := tenancy.NewService(tenancy.NewRepository(db))
	registry := pairing.NewRegistry(pairing.NewRepository(db), tenancySvc, cfg.Pairing)
	webhookRepo := repositories.NewWebhookRepository(db)

	log.Println("Starting background workers...")

	go runPairingSweeper(registry, cfg.Pairing.SweepPeriod)
	go runWebhookJanitor(webhookRepo, cfg.Webhooks.RetryAttempts)

	// Keep process alive
	select {}
}

func runPairingSweeper(registry *pairing.Registry, period time.Duration) {
	if period <= 0 {
		period = time.Minute
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for range ticker.C {
		workers.SweepExpiredPairings(registry)
	}
}

func runWebhookJanitor(repo *repositories.WebhookRepository, maxRetries int) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		workers.DisableFailingWebhooks(repo, maxRetries)
	}
}
