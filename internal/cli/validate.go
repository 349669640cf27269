package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/t3ns/internal/compiler"
	"github.com/roach88/t3ns/internal/snapshot"
	"github.com/roach88/t3ns/internal/sparse"
	"github.com/roach88/t3ns/internal/state"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Run    string
	Strict bool
}

// ValidationResult holds the outcome of an integrity check.
type ValidationResult struct {
	Valid     bool          `json:"valid"`
	Migration string        `json:"migration,omitempty"`
	Tensors   int           `json:"tensors"`
	Operators int           `json:"operators"`
	Blocks    int           `json:"blocks"`
	Unused    map[int][]int `json:"unused,omitempty"`
}

func (r ValidationResult) String() string {
	var b strings.Builder
	if r.Valid {
		b.WriteString("Snapshot valid")
	} else {
		b.WriteString("Snapshot has unused sectors")
	}
	fmt.Fprintf(&b, ": %d tensors, %d operator sets, %d blocks", r.Tensors, r.Operators, r.Blocks)
	if r.Migration != "" {
		fmt.Fprintf(&b, "\n  migration: %s", r.Migration)
	}
	bonds := make([]int, 0, len(r.Unused))
	for bond := range r.Unused {
		bonds = append(bonds, bond)
	}
	sort.Ints(bonds)
	for _, bond := range bonds {
		fmt.Fprintf(&b, "\n  bond %d: unused sectors %v", bond, r.Unused[bond])
	}
	return b.String()
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <snapshot>",
		Short: "Check the integrity of a snapshot",
		Long: `Read a snapshot and check every site tensor and renormalized operator
against the sector tables: block counts, block sizes and fusion rules.

With --run the snapshot is read under that run configuration, so symmetry
or target mismatches are reported as they would be on restart. Sectors no
block references are listed; --strict treats them as a failure.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Run, "run", "", "read the snapshot under this run configuration")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail when sectors are unused")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	result := ValidationResult{}
	var st *state.State
	if opts.Run != "" {
		run, err := compiler.LoadRun(opts.Run)
		if err != nil {
			return formatter.Fail("failed to load run configuration", err)
		}
		if st, err = configuredState(run); err != nil {
			return formatter.Fail("failed to configure state", err)
		}
		change, err := snapshot.Load(ctx, snapshotPath(path), st)
		if err != nil {
			return formatter.Fail("failed to read snapshot", err)
		}
		result.Migration = change.String()
	} else {
		var err error
		if st, err = loadSnapshot(ctx, path); err != nil {
			return formatter.Fail("failed to read snapshot", err)
		}
	}

	var report *sparse.Report
	err := st.Exclusive(func(st *state.State) error {
		var err error
		report, err = sparse.CheckIntegrity(ctx, st.Registry, st.Tensors, st.Ops)
		return err
	})
	if err != nil {
		if outErr := formatter.Error(errorCode(err), err.Error(), errorDetails(err)); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, "integrity check failed", err)
	}
	formatter.VerboseLog("Checked %d tensors and %d operator sets", report.Tensors, report.Operators)

	result.Tensors = report.Tensors
	result.Operators = report.Operators
	result.Blocks = report.Blocks
	if unused := report.Unused(st.Registry); len(unused) > 0 {
		result.Unused = unused
	}
	result.Valid = !opts.Strict || len(result.Unused) == 0

	if err := formatter.Success(result); err != nil {
		return err
	}
	if !result.Valid {
		return NewExitError(ExitFailure, "unused sectors")
	}
	return nil
}
