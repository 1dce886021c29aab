package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/chronicle-rpg/internal/logger"
	"github.com/jwebster45206/chronicle-rpg/internal/services/events"
	"github.com/jwebster45206/chronicle-rpg/internal/services/queue"
	"github.com/jwebster45206/chronicle-rpg/internal/services/sessions"
	queuePkg "github.com/jwebster45206/chronicle-rpg/pkg/queue"
	"github.com/redis/go-redis/v9"
)

const (
	workerTimeout = 5 * time.Second
	lockTTL       = 30 * time.Second
)

var releaseLockScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Worker applies queued session requests. Any number of workers may share a
// queue; a Redis lock per game state keeps two of them from running
// requests against the same game at once.
type Worker struct {
	id          string
	queue       *queue.RequestQueue
	runner      *sessions.Runner
	publisher   events.Publisher
	redisClient *redis.Client
	log         *slog.Logger
	pollTimeout time.Duration
}

// New creates a new worker instance
func New(q *queue.RequestQueue, runner *sessions.Runner, publisher events.Publisher, redisClient *redis.Client, log *slog.Logger, workerID string) *Worker {
	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}

	return &Worker{
		id:          workerID,
		queue:       q,
		runner:      runner,
		publisher:   publisher,
		redisClient: redisClient,
		log:         log.With("worker_id", workerID),
		pollTimeout: workerTimeout,
	}
}

func (w *Worker) ID() string {
	return w.id
}

// Start processes requests until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.log.Info("Worker starting")

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker shutting down")
			return nil
		default:
			if _, err := w.ProcessNext(ctx); err != nil {
				if ctx.Err() != nil {
					continue
				}
				w.log.Error("Error processing request", "error", err)
				// Continue processing even on error
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// ProcessNext waits for the next request and runs it. It reports whether a
// request was taken off the queue.
func (w *Worker) ProcessNext(ctx context.Context) (bool, error) {
	req, err := w.queue.BlockingDequeueRequest(ctx, w.pollTimeout)
	if err != nil {
		return false, fmt.Errorf("failed to dequeue request: %w", err)
	}
	if req == nil {
		// Timeout with an empty queue
		return false, nil
	}

	log := logger.WithSession(w.log, req.SessionID.String(), req.GameStateID.String())
	log = logger.WithRequestID(log, req.RequestID).With("type", req.Type)
	log.Info("Received request from queue")

	locked, err := w.acquireGameLock(ctx, req.GameStateID)
	if err != nil {
		return true, fmt.Errorf("failed to acquire game lock: %w", err)
	}
	if !locked {
		// Another worker holds this game; re-queue at the end and move on
		log.Info("Game already locked, re-queueing request")
		if err := w.queue.EnqueueRequest(ctx, req); err != nil {
			return true, fmt.Errorf("failed to re-queue request: %w", err)
		}
		return true, nil
	}
	defer w.releaseGameLock(req.GameStateID)

	return true, w.processRequest(ctx, log, req)
}

func (w *Worker) gameLockKey(gameStateID uuid.UUID) string {
	return "game-lock:" + gameStateID.String()
}

// acquireGameLock attempts to acquire a lock for a game
// Returns true if lock was acquired, false if already locked
func (w *Worker) acquireGameLock(ctx context.Context, gameStateID uuid.UUID) (bool, error) {
	return w.redisClient.SetNX(ctx, w.gameLockKey(gameStateID), w.id, lockTTL).Result()
}

// releaseGameLock releases the lock for a game if this worker still owns it
func (w *Worker) releaseGameLock(gameStateID uuid.UUID) {
	// Runs after the request even if the worker context was cancelled mid-way
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := releaseLockScript.Run(ctx, w.redisClient, []string{w.gameLockKey(gameStateID)}, w.id).Err(); err != nil {
		w.log.Error("Failed to release game lock", "error", err, "game_state_id", gameStateID.String())
	}
}

func (w *Worker) processRequest(ctx context.Context, log *slog.Logger, req *queuePkg.Request) error {
	start := time.Now()
	w.publish(ctx, req, events.NewRequestProcessingEvent(req.GameStateID, req.RequestID, string(req.Type)))

	var res *sessions.Result
	var err error
	switch req.Type {
	case queuePkg.RequestTypeAdvance:
		res, err = w.runner.Advance(ctx, req.SessionID, req.Choice)
	case queuePkg.RequestTypeReset:
		res, err = w.runner.Reset(ctx, req.SessionID)
	default:
		err = fmt.Errorf("unknown request type: %s", req.Type)
	}

	if err != nil {
		logger.WithError(log, err).Error("Failed to process request")
		w.publish(ctx, req, events.NewRequestFailedEvent(req.GameStateID, req.RequestID, err.Error()))
		if errors.Is(err, sessions.ErrSessionNotFound) {
			// Nothing to retry; the failure event is the answer
			return nil
		}
		return fmt.Errorf("failed to process %s request: %w", req.Type, err)
	}

	log.Info("Request processed successfully", "duration_ms", time.Since(start).Milliseconds())
	w.publish(ctx, req, events.NewRequestCompletedEvent(req.GameStateID, req.RequestID, map[string]any{
		"view":        res.View,
		"choice":      res.Choice,
		"duration_ms": time.Since(start).Milliseconds(),
	}))
	return nil
}

func (w *Worker) publish(ctx context.Context, req *queuePkg.Request, event events.Event) {
	if w.publisher == nil {
		return
	}
	if err := w.publisher.Publish(ctx, req.SessionID, event); err != nil {
		w.log.Error("Failed to publish request event", "error", err, "event_type", event.Type)
	}
}
