package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jwebster45206/chronicle-rpg/internal/services/sessions"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func listDialogues(client *http.Client, baseURL string) ([]string, error) {
	var files []string
	if err := doJSON(context.Background(), client, http.MethodGet, baseURL+"/v1/dialogues", nil, http.StatusOK, &files); err != nil {
		return nil, fmt.Errorf("failed to list dialogues: %w", err)
	}
	return files, nil
}

// remotePlayer plays a session hosted by the API.
type remotePlayer struct {
	client    *http.Client
	baseURL   string
	dialogue  string
	sessionID uuid.UUID
}

func startRemotePlayer(ctx context.Context, client *http.Client, baseURL, dialogueFile string) (*remotePlayer, error) {
	body := map[string]string{"dialogue": dialogueFile}
	var res sessions.Result
	if err := doJSON(ctx, client, http.MethodPost, baseURL+"/v1/sessions", body, http.StatusCreated, &res); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	return &remotePlayer{
		client:    client,
		baseURL:   baseURL,
		dialogue:  dialogueFile,
		sessionID: res.Session.ID,
	}, nil
}

func (p *remotePlayer) Title() string {
	return p.dialogue
}

func (p *remotePlayer) Current(ctx context.Context) (*Turn, error) {
	return p.call(ctx, http.MethodGet, "", nil)
}

func (p *remotePlayer) Choose(ctx context.Context, index int) (*Turn, error) {
	return p.call(ctx, http.MethodPost, "/advance", map[string]int{"choice": index})
}

func (p *remotePlayer) Reset(ctx context.Context) (*Turn, error) {
	return p.call(ctx, http.MethodPost, "/reset", nil)
}

func (p *remotePlayer) call(ctx context.Context, method, action string, body any) (*Turn, error) {
	url := fmt.Sprintf("%s/v1/sessions/%s%s", p.baseURL, p.sessionID, action)
	var res sessions.Result
	if err := doJSON(ctx, p.client, method, url, body, http.StatusOK, &res); err != nil {
		return nil, err
	}
	return &Turn{View: res.View, GameState: res.GameState, Choice: res.Choice}, nil
}

func doJSON(ctx context.Context, client *http.Client, method, url string, in any, wantStatus int, out any) error {
	var reqBody io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != wantStatus {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return fmt.Errorf("API error: %s", errorResp.Error)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
