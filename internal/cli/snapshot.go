package cli

import (
	"context"
	"os"

	"github.com/roach88/t3ns/internal/compiler"
	"github.com/roach88/t3ns/internal/snapshot"
	"github.com/roach88/t3ns/internal/state"
)

// snapshotPath accepts either a snapshot file or the directory holding it.
func snapshotPath(p string) string {
	if info, err := os.Stat(p); err == nil && info.IsDir() {
		return snapshot.FilePath(p)
	}
	return p
}

// loadSnapshot reads a snapshot into a fresh unconfigured state, adopting
// whatever configuration it holds.
func loadSnapshot(ctx context.Context, p string) (*state.State, error) {
	st := state.Unconfigured()
	if _, err := snapshot.Load(ctx, snapshotPath(p), st); err != nil {
		return nil, err
	}
	return st, nil
}

// configuredState returns an empty state carrying the registry and topology
// of run.
func configuredState(run *compiler.Run) (*state.State, error) {
	reg, err := state.BuildRegistry(run.Config())
	if err != nil {
		return nil, err
	}
	return state.New(reg, run.Network)
}
