package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type ConsoleConfig struct {
	APIBaseURL string
	Timeout    time.Duration
}

// With a file argument the dialogue runs locally. Without one, a dialogue
// is picked from the API and played as a server session.
func main() {
	var player Player
	var err error
	if len(os.Args) >= 2 {
		player, err = newLocalPlayer(os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load dialogue: %v\n", err)
			os.Exit(1)
		}
	} else {
		player = selectRemotePlayer()
	}

	p := tea.NewProgram(NewConsoleUI(player), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func selectRemotePlayer() Player {
	cfg := &ConsoleConfig{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		Timeout:    30 * time.Second,
	}
	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	if !testConnection(client, cfg.APIBaseURL) {
		fmt.Fprintf(os.Stderr, "Could not connect to API. Please ensure the API is running, or pass a dialogue file to play locally.\n")
		os.Exit(1)
	}

	files, err := listDialogues(client, cfg.APIBaseURL)
	if err != nil || len(files) == 0 {
		fmt.Fprintf(os.Stderr, "Failed to list dialogues: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Available Dialogues:")
	for i, f := range files {
		fmt.Printf("  %d - %s\n", i+1, f)
	}
	fmt.Print("\nSelect a dialogue by number: ")

	var choice int
	if _, err := fmt.Scanf("%d", &choice); err != nil || choice < 1 || choice > len(files) {
		fmt.Fprintf(os.Stderr, "Invalid selection\n")
		os.Exit(1)
	}

	player, err := startRemotePlayer(context.Background(), client, cfg.APIBaseURL, files[choice-1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	return player
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
