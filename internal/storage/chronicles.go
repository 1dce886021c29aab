package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/chronicle-rpg/pkg/chronicle"
	_ "modernc.org/sqlite"
)

// ChronicleStore keeps chronicle progress per game state in SQLite.
type ChronicleStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ chronicle.Store = (*ChronicleStore)(nil)

// OpenChronicleStore opens (creating if needed) the SQLite database at path.
// ":memory:" opens a private in-memory database.
func OpenChronicleStore(path string, logger *slog.Logger) (*ChronicleStore, error) {
	if path == "" {
		return nil, errors.New("empty chronicle db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create chronicle db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open chronicle db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initChroniclePragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initChronicleSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &ChronicleStore{db: db, logger: logger}, nil
}

func initChroniclePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return nil
}

func initChronicleSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS chronicles (
		gamestate_id TEXT NOT NULL,
		chronicle_id TEXT NOT NULL,
		current_stage TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		flags TEXT NOT NULL DEFAULT '{}',
		updated_at TEXT NOT NULL,
		PRIMARY KEY (gamestate_id, chronicle_id)
	);`)
	if err != nil {
		return fmt.Errorf("failed to create chronicles table: %w", err)
	}
	return nil
}

// LoadChronicles returns every chronicle stored for the game state, ordered
// by chronicle ID. An unknown game state has no chronicles.
func (s *ChronicleStore) LoadChronicles(ctx context.Context, gameStateID uuid.UUID) ([]chronicle.Progress, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chronicle_id, current_stage, completed, flags FROM chronicles
		 WHERE gamestate_id = ? ORDER BY chronicle_id`, gameStateID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query chronicles: %w", err)
	}
	defer rows.Close()

	progress := []chronicle.Progress{}
	for rows.Next() {
		var p chronicle.Progress
		var completed int
		var flags string
		if err := rows.Scan(&p.ChronicleID, &p.CurrentStage, &completed, &flags); err != nil {
			return nil, fmt.Errorf("failed to scan chronicle: %w", err)
		}
		p.Completed = completed != 0
		if err := json.Unmarshal([]byte(flags), &p.Flags); err != nil {
			s.logger.Warn("Discarding unreadable chronicle flags", "gamestate_id", gameStateID, "chronicle_id", p.ChronicleID, "error", err)
			p.Flags = map[string]any{}
		}
		progress = append(progress, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chronicles: %w", err)
	}
	return progress, nil
}

// SaveChronicles replaces everything stored for the game state with progress.
func (s *ChronicleStore) SaveChronicles(ctx context.Context, gameStateID uuid.UUID, progress []chronicle.Progress) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin chronicle transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chronicles WHERE gamestate_id = ?`, gameStateID.String()); err != nil {
		return fmt.Errorf("failed to clear chronicles: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, p := range progress {
		flags := p.Flags
		if flags == nil {
			flags = map[string]any{}
		}
		flagsJSON, err := json.Marshal(flags)
		if err != nil {
			return fmt.Errorf("failed to marshal flags for chronicle %s: %w", p.ChronicleID, err)
		}
		completed := 0
		if p.Completed {
			completed = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chronicles (gamestate_id, chronicle_id, current_stage, completed, flags, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			gameStateID.String(), p.ChronicleID, p.CurrentStage, completed, string(flagsJSON), now); err != nil {
			return fmt.Errorf("failed to insert chronicle %s: %w", p.ChronicleID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chronicles: %w", err)
	}
	return nil
}

func (s *ChronicleStore) Close() error {
	return s.db.Close()
}
