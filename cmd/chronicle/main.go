package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/jwebster45206/chronicle-rpg/internal/storage"
	"github.com/jwebster45206/chronicle-rpg/pkg/chronicle"
)

const usage = `Usage: %s <export|import> -gamestate <id> -file <path> [-db <chronicles.db>]

  export  writes the game state's chronicle progress to a save file
  import  replaces the game state's chronicle progress with a save file

Save files ending in .zst are zstd-compressed.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(1)
	}
	command := os.Args[1]

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	dbPath := fs.String("db", getEnv("CHRONICLE_DB", "./data/chronicles.db"), "SQLite chronicle database")
	gameFlag := fs.String("gamestate", "", "Game state ID (required)")
	file := fs.String("file", "", "Save file path (required)")
	_ = fs.Parse(os.Args[2:])

	gameStateID, err := uuid.Parse(*gameFlag)
	if err != nil || *file == "" {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	store, err := storage.OpenChronicleStore(*dbPath, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open chronicle store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	var n int
	switch command {
	case "export":
		n, err = exportChronicles(ctx, store, gameStateID, *file)
	case "import":
		n, err = importChronicles(ctx, store, gameStateID, *file)
	default:
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", command, err)
		os.Exit(1)
	}

	fmt.Printf("%sed %d chronicles for %s (%s)\n", command, n, gameStateID, *file)
}

// exportChronicles saves the stored progress of a game state to path.
func exportChronicles(ctx context.Context, store chronicle.Store, gameStateID uuid.UUID, path string) (int, error) {
	m, err := chronicle.LoadManager(ctx, store, gameStateID)
	if err != nil {
		return 0, fmt.Errorf("failed to load chronicles: %w", err)
	}
	if err := m.Save(path); err != nil {
		return 0, err
	}
	return m.Len(), nil
}

// importChronicles replaces the stored progress of a game state with the
// contents of path. Unlike Manager.Load, a missing file is an error so a
// mistyped path never wipes stored progress.
func importChronicles(ctx context.Context, store chronicle.Store, gameStateID uuid.UUID, path string) (int, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("failed to read save file: %w", err)
	}

	m := chronicle.NewManager()
	if err := m.Load(path); err != nil {
		return 0, err
	}
	if err := store.SaveChronicles(ctx, gameStateID, m.All()); err != nil {
		return 0, fmt.Errorf("failed to save chronicles: %w", err)
	}
	return m.Len(), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
