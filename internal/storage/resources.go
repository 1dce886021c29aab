package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jwebster45206/chronicle-rpg/pkg/dialogue"
	"github.com/jwebster45206/chronicle-rpg/pkg/storage"
	"github.com/jwebster45206/chronicle-rpg/pkg/tilemap"
)

var documentExts = []string{".json", ".yaml", ".yml"}

// Dialogue operations (filesystem-backed)

func (r *RedisStorage) ListDialogues(ctx context.Context) ([]string, error) {
	return listDocuments(filepath.Join(r.dataDir, "dialogues"))
}

func (r *RedisStorage) GetDialogue(ctx context.Context, filename string) (*dialogue.Graph, error) {
	if err := validateFilename(filename); err != nil {
		return nil, err
	}
	return dialogue.LoadGraph(filepath.Join(r.dataDir, "dialogues", filename))
}

// Map operations (filesystem-backed)

func (r *RedisStorage) ListMaps(ctx context.Context) ([]string, error) {
	return listDocuments(filepath.Join(r.dataDir, "maps"))
}

func (r *RedisStorage) GetMap(ctx context.Context, filename string) (*tilemap.Map, error) {
	if err := validateFilename(filename); err != nil {
		return nil, err
	}
	return tilemap.Load(filepath.Join(r.dataDir, "maps", filename))
}

func listDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if slices.Contains(documentExts, strings.ToLower(filepath.Ext(entry.Name()))) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// validateFilename rejects names that are not a single file in the
// resource directory.
func validateFilename(filename string) error {
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return fmt.Errorf("%w: %q", storage.ErrInvalidFilename, filename)
	}
	return nil
}
