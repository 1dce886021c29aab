package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/chronicle-rpg/internal/handlers"
	"github.com/jwebster45206/chronicle-rpg/internal/services/sessions"
	"github.com/jwebster45206/chronicle-rpg/pkg/state"
)

const (
	// PollInterval is how often to check the session for updates
	PollInterval = 1 * time.Second
	// AsyncTimeout is max time to wait for a worker to run a queued request
	AsyncTimeout = 30 * time.Second
)

// doJSON sends body (if any) as JSON and decodes a response with the wanted status into out.
func doJSON(ctx context.Context, client *http.Client, method, url string, body any, wantStatus int, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s %s: %w", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != wantStatus {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s returned %d (expected %d): %s", method, url, resp.StatusCode, wantStatus, string(respBody))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// PostEnqueue queues a choice or reset and returns the request_id
func PostEnqueue(ctx context.Context, client *http.Client, baseURL string, sessionID uuid.UUID, body handlers.EnqueueRequest) (string, error) {
	var resp handlers.EnqueueResponse
	url := fmt.Sprintf("%s/v1/sessions/%s/enqueue", baseURL, sessionID.String())
	if err := doJSON(ctx, client, http.MethodPost, url, body, http.StatusAccepted, &resp); err != nil {
		return "", err
	}
	return resp.RequestID, nil
}

// GetSession retrieves the current session view
func GetSession(ctx context.Context, client *http.Client, baseURL string, sessionID uuid.UUID) (*sessions.Result, error) {
	var res sessions.Result
	url := fmt.Sprintf("%s/v1/sessions/%s", baseURL, sessionID.String())
	if err := doJSON(ctx, client, http.MethodGet, url, nil, http.StatusOK, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetGameState retrieves the current gamestate
func GetGameState(ctx context.Context, client *http.Client, baseURL string, gameStateID uuid.UUID) (*state.GameState, error) {
	var gs state.GameState
	url := fmt.Sprintf("%s/v1/gamestate/%s", baseURL, gameStateID.String())
	if err := doJSON(ctx, client, http.MethodGet, url, nil, http.StatusOK, &gs); err != nil {
		return nil, err
	}
	return &gs, nil
}

// PollForSessionUpdate polls the session until its updated_at moves past since.
func PollForSessionUpdate(ctx context.Context, client *http.Client, baseURL string, sessionID uuid.UUID, since time.Time, interval, timeout time.Duration) (*sessions.Result, error) {
	deadline := time.After(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, fmt.Errorf("timeout waiting for session update (waited %v)", timeout)
		case <-ticker.C:
			res, err := GetSession(ctx, client, baseURL, sessionID)
			if err != nil {
				// Keep polling; the worker may be mid-write
				continue
			}
			if res.Session != nil && res.Session.UpdatedAt.After(since) {
				return res, nil
			}
		}
	}
}
