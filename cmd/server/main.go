package main

import (
	"fmt"
	"log"
	"net/http"

	"observer/internal/api"
	"observer/internal/api/handlers"
	"observer/internal/api/middleware"
	"observer/internal/engine/keys"
	"observer/internal/engine/notify"
	"observer/internal/pkg/logger"
	"observer/internal/platform/auth"
	"observer/internal/platform/config"
	"observer/internal/platform/database"
	"observer/internal/platform/email"
	"observer/internal/platform/repositories"
	"observer/internal/platform/secrets"
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

	// Repositories
	keyRepo := repositories.NewKeyRepository(db)

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT)
	keySvc := keys.NewService(keyRepo, cipher)
	creditTracker := keys.NewCreditTracker(keyRepo, cipher, cfg.Firecrawl)
	emailClient := email.NewClient(cfg.Email)
	dispatcher := notify.NewDispatcher(cfg.Notify, emailClient)

	// Handlers
	keyHandler := handlers.NewKeyHandler(keySvc, creditTracker)
	notifyHandler := handlers.NewNotifyHandler(dispatcher)
	healthHandler := handlers.NewHealthHandler(db)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc)

	router := api.NewRouter(&api.Dependencies{
		KeyHandler:     keyHandler,
		NotifyHandler:  notifyHandler,
		HealthHandler:  healthHandler,
		AuthMiddleware: authMiddleware,
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
