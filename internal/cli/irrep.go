package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/t3ns/internal/ir"
	"github.com/roach88/t3ns/internal/symmetry"
)

// IrrepOptions holds flags for the irrep command.
type IrrepOptions struct {
	*RootOptions
	Symmetries string
}

// IrrepResult reports parsed labels and, for two or three label tuples,
// their fusion.
type IrrepResult struct {
	Symmetries []string   `json:"symmetries"`
	Labels     [][]string `json:"labels"`
	Fusions    [][]string `json:"fusions,omitempty"`
	Fusable    *bool      `json:"fusable,omitempty"`
}

func (r IrrepResult) String() string {
	var b strings.Builder
	format := func(ls []string) string { return "(" + strings.Join(ls, ", ") + ")" }
	fmt.Fprintf(&b, "symmetries: %s", strings.Join(r.Symmetries, " x "))
	for _, l := range r.Labels {
		fmt.Fprintf(&b, "\n  %s", format(l))
	}
	if len(r.Labels) == 2 {
		parts := make([]string, len(r.Fusions))
		for i, f := range r.Fusions {
			parts[i] = format(f)
		}
		fmt.Fprintf(&b, "\n%s x %s -> %s", format(r.Labels[0]), format(r.Labels[1]), strings.Join(parts, " + "))
	}
	if r.Fusable != nil {
		fmt.Fprintf(&b, "\nfusable: %t", *r.Fusable)
	}
	return b.String()
}

// NewIrrepCommand creates the irrep command.
func NewIrrepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IrrepOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "irrep <labels> [labels] [labels]",
		Short: "Parse irrep labels and evaluate fusion rules",
		Long: `Parse one label tuple per argument, comma separated with one label per
symmetry group.

With one tuple the normalized labels are printed. With two tuples every
tuple reachable by fusing them is listed. With three tuples, reports
whether the third is reachable from the first two.

Example:
  t3ns irrep --symmetries Z2,U1,SU2 1,1,1 1,1,1
  t3ns irrep --symmetries U1,C2v 1,B1 1,B2 2,A2`,
		Args:          cobra.RangeArgs(1, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIrrep(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Symmetries, "symmetries", "s", "", "comma separated symmetry groups (required)")
	_ = cmd.MarkFlagRequired("symmetries")

	return cmd
}

func runIrrep(opts *IrrepOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	groups, err := symmetry.Parse(splitList(opts.Symmetries))
	if err != nil {
		if outErr := formatter.Error(errorCode(err), err.Error(), errorDetails(err)); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitCommandError, "invalid symmetries", err)
	}

	tuples := make([]ir.Labels, len(args))
	result := IrrepResult{Symmetries: groups.Names()}
	for i, arg := range args {
		if tuples[i], err = groups.ParseLabels(splitList(arg)); err != nil {
			return formatter.Fail(fmt.Sprintf("argument %d", i+1), err)
		}
		result.Labels = append(result.Labels, groups.LabelStrings(tuples[i]))
	}

	switch len(tuples) {
	case 2:
		for _, l := range groups.FuseAll(tuples[0], tuples[1]) {
			if groups.Valid(l) {
				result.Fusions = append(result.Fusions, groups.LabelStrings(l))
			}
		}
	case 3:
		ok := groups.Fusable(tuples[0], tuples[1], tuples[2])
		result.Fusable = &ok
	}
	return formatter.Success(result)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
