package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/t3ns/internal/snapshot"
	"github.com/roach88/t3ns/internal/state"
)

// InspectResult is the structural summary of a snapshot.
type InspectResult struct {
	Path      string         `json:"path"`
	Digest    string         `json:"digest"`
	Structure map[string]any `json:"structure"`

	st *state.State
}

func (r InspectResult) String() string {
	st := r.st
	reg, net := st.Registry, st.Network
	groups := reg.Groups()

	var b strings.Builder
	fmt.Fprintf(&b, "Snapshot %s\n", r.Path)
	fmt.Fprintf(&b, "  symmetries: %s\n", strings.Join(groups.Names(), " x "))
	fmt.Fprintf(&b, "  target:     %s\n", groups.FormatLabels(reg.TargetState()))
	fmt.Fprintf(&b, "  digest:     %s\n", r.Digest)
	fmt.Fprintf(&b, "Bonds:\n")
	for i, bond := range net.Bonds() {
		list, _ := reg.Sectors(i)
		fmt.Fprintf(&b, "  %2d  %3d>%-3d sectors %-4d dim %d", i, bond[0], bond[1], list.Len(), list.TotalDims())
		if net.IsOpen(i) {
			b.WriteString("  (open)")
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Sites:\n")
	for i, t := range st.Tensors {
		kind := "branching"
		if orb := net.Orbital(i); orb >= 0 {
			kind = fmt.Sprintf("orbital %d", orb)
		}
		fmt.Fprintf(&b, "  %2d  %-12s blocks %-4d elements %d\n", i, kind, t.NrBlocks(), t.Blocks.Len())
	}
	attached := 0
	for _, op := range st.Ops {
		if !op.IsUnattached() {
			attached++
		}
	}
	fmt.Fprintf(&b, "Operators: %d of %d bonds attached", attached, len(st.Ops))
	return b.String()
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <snapshot>",
		Short: "Print the structure of a snapshot",
		Long: `Read a snapshot without any run configuration and print its symmetry
groups, target state, sector tables and block structure.

The argument is the snapshot file or the directory holding it. With
--format json the full canonical structure is printed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runInspect(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	st, err := loadSnapshot(cmd.Context(), path)
	if err != nil {
		return formatter.Fail("failed to read snapshot", err)
	}
	structure, err := snapshot.Describe(st)
	if err != nil {
		return formatter.Fail("failed to describe snapshot", err)
	}
	digest, err := snapshot.StructureDigest(st)
	if err != nil {
		return formatter.Fail("failed to digest snapshot", err)
	}
	return formatter.Success(InspectResult{
		Path:      snapshotPath(path),
		Digest:    digest,
		Structure: structure,
		st:        st,
	})
}
