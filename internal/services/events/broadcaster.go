package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeSessionStarted   EventType = "dialogue.started"
	EventTypeChoiceTaken      EventType = "dialogue.choice"
	EventTypeSessionReset     EventType = "dialogue.reset"
	EventTypeSessionFinished  EventType = "dialogue.finished"
	EventTypeGameStateUpdated EventType = "game.state_updated"

	// Queued request lifecycle, published by workers
	EventTypeRequestProcessing EventType = "request.processing"
	EventTypeRequestCompleted  EventType = "request.completed"
	EventTypeRequestFailed     EventType = "request.failed"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id,omitempty"`
	GameID    string         `json:"game_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Publisher is the subset of Broadcaster the handlers depend on.
type Publisher interface {
	Publish(ctx context.Context, sessionID uuid.UUID, event Event) error
}

// Broadcaster publishes events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

var _ Publisher = (*Broadcaster)(nil)

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Channel is the pub/sub channel carrying a session's events.
func Channel(sessionID uuid.UUID) string {
	return "dialogue-events:" + sessionID.String()
}

// Publish publishes an event to the session-specific channel
func (b *Broadcaster) Publish(ctx context.Context, sessionID uuid.UUID, event Event) error {
	channel := Channel(sessionID)
	event.SessionID = sessionID.String()

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
	)
	return nil
}

// Subscribe opens a subscription to a session's events. The caller closes it.
func (b *Broadcaster) Subscribe(ctx context.Context, sessionID uuid.UUID) *redis.PubSub {
	return b.redisClient.Subscribe(ctx, Channel(sessionID))
}

// NewChoiceEvent describes a choice taken and where it led.
func NewChoiceEvent(gameID uuid.UUID, fromNode, choice, toNode string, finished bool) Event {
	eventType := EventTypeChoiceTaken
	if finished {
		eventType = EventTypeSessionFinished
	}
	return Event{
		Type:   eventType,
		GameID: gameID.String(),
		Data: map[string]any{
			"from":     fromNode,
			"choice":   choice,
			"to":       toNode,
			"finished": finished,
		},
	}
}

func NewStartedEvent(gameID uuid.UUID, dialogueFile, nodeID string) Event {
	return Event{
		Type:   EventTypeSessionStarted,
		GameID: gameID.String(),
		Data: map[string]any{
			"dialogue": dialogueFile,
			"node_id":  nodeID,
		},
	}
}

func NewResetEvent(gameID uuid.UUID, nodeID string) Event {
	return Event{
		Type:   EventTypeSessionReset,
		GameID: gameID.String(),
		Data:   map[string]any{"node_id": nodeID},
	}
}

// NewGameStateEvent summarizes the game state after a change.
func NewGameStateEvent(gameID uuid.UUID, inventory []string, factions map[string]int) Event {
	return Event{
		Type:   EventTypeGameStateUpdated,
		GameID: gameID.String(),
		Data: map[string]any{
			"inventory": inventory,
			"factions":  factions,
		},
	}
}

func NewRequestProcessingEvent(gameID uuid.UUID, requestID, requestType string) Event {
	return Event{
		Type:   EventTypeRequestProcessing,
		GameID: gameID.String(),
		Data: map[string]any{
			"request_id":   requestID,
			"request_type": requestType,
		},
	}
}

// NewRequestCompletedEvent carries the result of a queued request, usually
// the session view after it ran.
func NewRequestCompletedEvent(gameID uuid.UUID, requestID string, result map[string]any) Event {
	data := map[string]any{"request_id": requestID}
	for k, v := range result {
		data[k] = v
	}
	return Event{
		Type:   EventTypeRequestCompleted,
		GameID: gameID.String(),
		Data:   data,
	}
}

func NewRequestFailedEvent(gameID uuid.UUID, requestID, errMsg string) Event {
	return Event{
		Type:   EventTypeRequestFailed,
		GameID: gameID.String(),
		Data: map[string]any{
			"request_id": requestID,
			"error":      errMsg,
		},
	}
}
