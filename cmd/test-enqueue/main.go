package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/jwebster45206/chronicle-rpg/internal/services/queue"
	queuePkg "github.com/jwebster45206/chronicle-rpg/pkg/queue"
	"github.com/redis/go-redis/v9"
)

func main() {
	redisURL := flag.String("redis", "localhost:6379", "Redis address")
	sessionFlag := flag.String("session", "", "Session ID (required)")
	gameFlag := flag.String("gamestate", "", "Game state ID the session runs against (required)")
	choice := flag.Int("choice", 0, "Visible choice index to take")
	reset := flag.Bool("reset", false, "Enqueue a reset instead of a choice")
	flag.Parse()

	sessionID, err := uuid.Parse(*sessionFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Usage: test-enqueue -session <id> -gamestate <id> [-choice n | -reset]")
		os.Exit(1)
	}
	gameStateID, err := uuid.Parse(*gameFlag)
	if err != nil {
		log.Fatal("Invalid game state ID:", err)
	}

	client := redis.NewClient(&redis.Options{Addr: *redisURL})
	defer client.Close()

	ctx := context.Background()

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	fmt.Println("Connected to Redis successfully!")

	var req *queuePkg.Request
	if *reset {
		req = queuePkg.NewResetRequest(sessionID, gameStateID)
	} else {
		req = queuePkg.NewAdvanceRequest(sessionID, gameStateID, *choice)
	}

	q := queue.NewRequestQueue(client)
	if err := q.EnqueueRequest(ctx, req); err != nil {
		log.Fatal("Failed to enqueue request:", err)
	}

	fmt.Printf("Enqueued %s request: %s\n", req.Type, req.RequestID)

	depth, err := q.Depth(ctx)
	if err != nil {
		log.Fatal("Failed to get queue depth:", err)
	}

	fmt.Printf("Queue depth: %d requests\n", depth)
	fmt.Println("Start the worker to process them: go run ./cmd/worker")
}
