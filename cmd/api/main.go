package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/chronicle-rpg/internal/config"
	"github.com/jwebster45206/chronicle-rpg/internal/handlers"
	"github.com/jwebster45206/chronicle-rpg/internal/logger"
	"github.com/jwebster45206/chronicle-rpg/internal/middleware"
	"github.com/jwebster45206/chronicle-rpg/internal/services/events"
	"github.com/jwebster45206/chronicle-rpg/internal/services/queue"
	"github.com/jwebster45206/chronicle-rpg/internal/services/sessions"
	"github.com/jwebster45206/chronicle-rpg/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Chronicle RPG API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"data_dir", cfg.DataDir)

	redisStorage, err := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, cfg.SessionTTL, log)
	if err != nil {
		log.Error("Failed to create storage", "error", err)
		os.Exit(1)
	}

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := redisStorage.WaitForConnection(storageCtx, 10, 2*time.Second); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	chronicleStore, err := storage.OpenChronicleStore(cfg.ChronicleDB, log)
	if err != nil {
		log.Error("Failed to open chronicle store", "error", err, "path", cfg.ChronicleDB)
		os.Exit(1)
	}

	broadcaster := events.NewBroadcaster(redisStorage.Client(), log)
	runner := sessions.NewRunner(redisStorage, broadcaster, log)

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(redisStorage, log))

	gameStateHandler := handlers.NewGameStateHandler(redisStorage, log)
	mux.Handle("/v1/gamestate", gameStateHandler)
	mux.Handle("/v1/gamestate/", gameStateHandler)

	dialogueHandler := handlers.NewDialogueHandler(redisStorage, log)
	mux.Handle("/v1/dialogues", dialogueHandler)
	mux.Handle("/v1/dialogues/", dialogueHandler)

	requestQueue := queue.NewRequestQueue(redisStorage.Client())
	sessionHandler := handlers.NewSessionHandler(runner, log).WithQueue(requestQueue)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	mux.Handle("/v1/events/sessions/", handlers.NewEventsHandler(broadcaster, log))
	mux.Handle("/v1/play/", handlers.NewPlayHandler(runner, log))
	mux.Handle("/v1/chronicles/", handlers.NewChronicleHandler(chronicleStore, log))

	mapHandler := handlers.NewMapHandler(redisStorage, log)
	mux.Handle("/v1/maps", mapHandler)
	mux.Handle("/v1/maps/", mapHandler)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(log, mux),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: SSE and websocket connections manage their own deadlines
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := chronicleStore.Close(); err != nil {
		log.Error("Error closing chronicle store", "error", err)
	}
	if err := redisStorage.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
