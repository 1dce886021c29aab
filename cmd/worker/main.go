package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/chronicle-rpg/internal/config"
	"github.com/jwebster45206/chronicle-rpg/internal/logger"
	"github.com/jwebster45206/chronicle-rpg/internal/services/events"
	"github.com/jwebster45206/chronicle-rpg/internal/services/queue"
	"github.com/jwebster45206/chronicle-rpg/internal/services/sessions"
	"github.com/jwebster45206/chronicle-rpg/internal/storage"
	"github.com/jwebster45206/chronicle-rpg/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Chronicle RPG Worker",
		"environment", cfg.Environment,
		"redis_url", cfg.RedisURL)

	redisStorage, err := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, cfg.SessionTTL, log)
	if err != nil {
		log.Error("Failed to create storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisStorage.Close(); err != nil {
			log.Error("Error closing storage connection", "error", err)
		}
	}()

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := redisStorage.WaitForConnection(storageCtx, 10, 2*time.Second); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage service initialized successfully")

	// Queue, lock and pub/sub share the storage client's pool
	client := redisStorage.Client()
	broadcaster := events.NewBroadcaster(client, log)
	runner := sessions.NewRunner(redisStorage, broadcaster, log)
	requestQueue := queue.NewRequestQueue(client)

	w := worker.New(requestQueue, runner, broadcaster, client, log, cfg.WorkerID)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Start(ctx); err != nil {
			log.Error("Worker error", "error", err)
		}
	}()

	log.Info("Worker started, waiting for requests...", "worker_id", w.ID())

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Worker shutdown signal received")

	cancel()

	// Give worker time to finish current request
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		log.Warn("Worker did not stop in time")
	}

	log.Info("Worker exited")
}
