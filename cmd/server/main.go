package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/studyhub-app/studyhub-server/internal/api"
	"github.com/studyhub-app/studyhub-server/internal/canvas"
	"github.com/studyhub-app/studyhub-server/internal/config"
	"github.com/studyhub-app/studyhub-server/internal/database"
	"github.com/studyhub-app/studyhub-server/internal/gcal"
	"github.com/studyhub-app/studyhub-server/internal/jobs"
	"github.com/studyhub-app/studyhub-server/internal/notification"
	"github.com/studyhub-app/studyhub-server/internal/oauth"
	"github.com/studyhub-app/studyhub-server/internal/store"
	"github.com/studyhub-app/studyhub-server/internal/websocket"
)

func main() {
	// Load .env if present; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Get underlying SQL database for cleanup
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database connection: %v", err)
	}
	defer sqlDB.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.Database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize WebSocket hub
	hub := websocket.NewHub(cfg.JWTSecret, cfg.CORSOrigins)
	go hub.Run()

	// Initialize reminder dispatcher
	dispatcher := notification.NewDispatcher(db)

	// OAuth wiring: provider registry, code exchanger, token store
	registry := oauth.NewRegistry(cfg)
	exchanger := oauth.NewExchanger()
	st := store.New(db)
	tokens := store.NewTokenSource(st, exchanger)

	// Integration clients
	syncer := canvas.NewSyncer(db, registry, tokens)
	calendar := gcal.NewClient(registry, tokens)

	// Initialize job scheduler
	scheduler := jobs.NewScheduler(db, dispatcher)
	scheduler.Start()
	defer scheduler.Stop()

	// Setup API router
	router := api.NewRouter(api.Deps{
		Config:     cfg,
		DB:         db,
		Hub:        hub,
		Registry:   registry,
		Exchanger:  exchanger,
		Store:      st,
		Syncer:     syncer,
		Calendar:   calendar,
		Dispatcher: dispatcher,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on port %d", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
