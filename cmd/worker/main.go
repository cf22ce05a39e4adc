package main

import (
	"context"
	"log"
	"time"

	"observer/internal/engine/keys"
	"observer/internal/pkg/logger"
	"observer/internal/platform/config"
	"observer/internal/platform/database"
	"observer/internal/platform/repositories"
	"observer/internal/platform/secrets"
	"observer/internal/workers"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	cipher, err := secrets.NewCipher(cfg.Secrets)
	if err != nil {
		log.Fatalf("Failed to initialize secret cipher: %v", err)
	}

	keyRepo := repositories.NewKeyRepository(db)
	tracker := keys.NewCreditTracker(keyRepo, cipher, cfg.Firecrawl)

	log.Println("Starting Observer background workers...")

	interval := cfg.Worker.CreditRefreshInterval
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		if err := workers.RefreshAllCredits(context.Background(), keyRepo, tracker); err != nil {
			log.Printf("Error refreshing credits: %v", err)
		}
	}
}
