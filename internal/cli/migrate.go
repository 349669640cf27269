package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/t3ns/internal/compiler"
	"github.com/roach88/t3ns/internal/snapshot"
	"github.com/roach88/t3ns/internal/store"
)

// MigrateOptions holds flags for the migrate command.
type MigrateOptions struct {
	*RootOptions
	Out    string
	Codec  string
	DryRun bool
}

// MigrateResult describes a snapshot read under a new run configuration.
type MigrateResult struct {
	From      string   `json:"from"`
	Path      string   `json:"path,omitempty"`
	Migration string   `json:"migration"`
	Target    []string `json:"target"`
	Digest    string   `json:"digest"`
}

func (r MigrateResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Read %s (%s)\n", r.From, r.Migration)
	fmt.Fprintf(&b, "  target: (%s)\n", strings.Join(r.Target, ", "))
	fmt.Fprintf(&b, "  digest: %s", r.Digest)
	if r.Path != "" {
		fmt.Fprintf(&b, "\nSnapshot written to %s", r.Path)
	}
	return b.String()
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "migrate <run.cue|run-dir> <snapshot>",
		Short: "Read a snapshot under a run configuration and write it back",
		Long: `Read a snapshot into the state described by a run configuration.

The symmetry groups and the network must match the snapshot. A target
state that differs only in a seniority range is migrated: sectors are
rebuilt for the new target and the open-bond tensor is projected and
renormalized. Any other target difference is rejected.

Example:
  t3ns migrate ./h2o-seniority0.cue ./out
  t3ns migrate ./h2o.cue ./out/T3NScalc.db --dry-run`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "snapshot directory (overrides snapshot.dir)")
	cmd.Flags().StringVar(&opts.Codec, "codec", "", "dataset codec: none, lz4 or zstd (overrides snapshot.codec)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "read and migrate without writing")

	return cmd
}

func runMigrate(opts *MigrateOptions, runPath, snapPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	run, err := compiler.LoadRun(runPath)
	if err != nil {
		return formatter.Fail("failed to load run configuration", err)
	}
	st, err := configuredState(run)
	if err != nil {
		return formatter.Fail("failed to configure state", err)
	}

	from := snapshotPath(snapPath)
	change, err := snapshot.Load(ctx, from, st)
	if err != nil {
		return formatter.Fail("failed to migrate snapshot", err)
	}
	formatter.VerboseLog("Read %s: %s", from, change)

	digest, err := snapshot.StructureDigest(st)
	if err != nil {
		return formatter.Fail("failed to digest state", err)
	}
	result := MigrateResult{
		From:      from,
		Migration: change.String(),
		Target:    st.Groups().LabelStrings(st.Registry.TargetState()),
		Digest:    digest,
	}

	if !opts.DryRun {
		dir := run.Snapshot.Dir
		if opts.Out != "" {
			dir = opts.Out
		}
		codec := run.Snapshot.Codec
		if opts.Codec != "" {
			if codec, err = store.ParseCodec(opts.Codec); err != nil {
				return formatter.Fail("invalid codec", err)
			}
		}
		if result.Path, err = snapshot.Save(ctx, dir, st, store.Options{Codec: codec}); err != nil {
			return formatter.Fail("failed to write snapshot", err)
		}
	}
	return formatter.Success(result)
}
