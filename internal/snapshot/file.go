package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/t3ns/internal/ir"
	"github.com/roach88/t3ns/internal/state"
	"github.com/roach88/t3ns/internal/store"
)

// Save writes st to the snapshot file in dir, creating dir if needed, and
// returns the file path.
func Save(ctx context.Context, dir string, st *state.State, opts store.Options) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}
	path := FilePath(dir)
	s, err := store.Open(path, opts)
	if err != nil {
		return "", err
	}
	defer s.Close()

	if err := Write(ctx, s, st); err != nil {
		return "", err
	}
	id, err := s.SnapshotID(ctx)
	if err != nil {
		return "", err
	}
	slog.Info("snapshot saved", "path", path, "id", id)
	return path, nil
}

// Load reads the snapshot file at path into st. A missing file is
// NOT_FOUND; the file is never created.
func Load(ctx context.Context, path string, st *state.State) (state.TargetChange, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return state.Incompatible, ir.Wrap(ir.ErrCodeNotFound, "snapshot "+path, err)
		}
		return state.Incompatible, fmt.Errorf("stat snapshot: %w", err)
	}
	s, err := store.Open(path, store.Options{})
	if err != nil {
		return state.Incompatible, err
	}
	defer s.Close()

	change, err := Read(ctx, s, st)
	if err != nil {
		return change, err
	}
	slog.Info("snapshot loaded", "path", path, "migration", change.String())
	return change, nil
}
