package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nutriplan-bot/internal/api"
	"nutriplan-bot/internal/bot"
	"nutriplan-bot/internal/config"
	"nutriplan-bot/internal/database"
	"nutriplan-bot/internal/metrics"
	"nutriplan-bot/internal/session"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Configuration
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize local storage
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	tokens := session.NewTokenStore(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)

	// 3. Initialize the backend client and check reachability
	backend := api.NewClient(cfg.BackendURL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := backend.Health(ctx); err != nil {
		log.Printf("Warning: backend %s not reachable: %v", cfg.BackendURL, err)
	} else {
		log.Printf("Backend %s is healthy", cfg.BackendURL)
	}
	cancel()

	// 4. Initialize the Telegram Bot
	b, err := bot.NewBot(cfg, backend, tokens, metricsStore)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram Bot: %v", err)
	}

	// 5. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: b.Router(),
	}

	go func() {
		log.Printf("NutriPlan bot listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
