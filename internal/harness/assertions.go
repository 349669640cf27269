package harness

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/t3ns/internal/snapshot"
	"github.com/roach88/t3ns/internal/sparse"
	"github.com/roach88/t3ns/internal/state"
)

// normTolerance bounds the accepted deviation of a norm assertion.
const normTolerance = 1e-12

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion against the final state and
// returns the failure messages. saved is the structure digest at the last
// save, empty if nothing was saved.
func EvaluateAssertions(ctx context.Context, st *state.State, saved string, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(ctx, st, saved, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(ctx context.Context, st *state.State, saved string, a Assertion) error {
	if st == nil || !st.Configured() {
		return &AssertionError{Type: a.Type, Expected: "a configured state", Actual: "no configured state"}
	}
	switch a.Type {
	case AssertTarget:
		return assertTarget(st, a)
	case AssertSectors:
		return assertSectors(st, a)
	case AssertBlocks:
		return assertBlocks(st, a)
	case AssertNorm:
		return assertNorm(st, a)
	case AssertIntegrity:
		return assertIntegrity(ctx, st)
	case AssertDigestStable:
		return assertDigestStable(st, saved)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func assertTarget(st *state.State, a Assertion) error {
	got := st.Groups().LabelStrings(st.Registry.TargetState())
	if !slices.Equal(got, a.Labels) {
		return &AssertionError{
			Type:     AssertTarget,
			Expected: fmt.Sprintf("%v", a.Labels),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

func assertSectors(st *state.State, a Assertion) error {
	list, err := st.Registry.Sectors(a.Bond)
	if err != nil {
		return err
	}
	groups := st.Groups()
	irreps := make([]string, len(list))
	for i, s := range list {
		irreps[i] = groups.FormatLabels(s.Irreps)
	}
	if !slices.Equal(irreps, a.Irreps) {
		return &AssertionError{
			Type:     AssertSectors,
			Expected: fmt.Sprintf("bond %d irreps %v", a.Bond, a.Irreps),
			Actual:   fmt.Sprintf("%v", irreps),
		}
	}
	if a.Dims != nil && !slices.Equal(list.Dims(), a.Dims) {
		return &AssertionError{
			Type:     AssertSectors,
			Expected: fmt.Sprintf("bond %d dims %v", a.Bond, a.Dims),
			Actual:   fmt.Sprintf("%v", list.Dims()),
		}
	}
	return nil
}

func assertBlocks(st *state.State, a Assertion) error {
	t, err := siteTensor(st, a.Site)
	if err != nil {
		return err
	}
	if t.NrBlocks() != a.Count {
		return &AssertionError{
			Type:     AssertBlocks,
			Expected: fmt.Sprintf("site %d with %d blocks", a.Site, a.Count),
			Actual:   fmt.Sprintf("%d blocks", t.NrBlocks()),
		}
	}
	return nil
}

func assertNorm(st *state.State, a Assertion) error {
	t, err := siteTensor(st, a.Site)
	if err != nil {
		return err
	}
	if got := t.Norm(); math.Abs(got-a.Value) > normTolerance {
		return &AssertionError{
			Type:     AssertNorm,
			Expected: fmt.Sprintf("site %d norm %g", a.Site, a.Value),
			Actual:   fmt.Sprintf("%g", got),
		}
	}
	return nil
}

func assertIntegrity(ctx context.Context, st *state.State) error {
	_, err := sparse.CheckIntegrity(ctx, st.Registry, st.Tensors, st.Ops)
	if err != nil {
		return &AssertionError{Type: AssertIntegrity, Expected: "consistent blocks", Actual: err.Error()}
	}
	return nil
}

func assertDigestStable(st *state.State, saved string) error {
	if saved == "" {
		return &AssertionError{Type: AssertDigestStable, Expected: "a saved snapshot", Actual: "nothing saved"}
	}
	got, err := snapshot.StructureDigest(st)
	if err != nil {
		return err
	}
	if got != saved {
		return &AssertionError{Type: AssertDigestStable, Expected: saved, Actual: got}
	}
	return nil
}

func siteTensor(st *state.State, site int) (*sparse.SiteTensor, error) {
	if site < 0 || site >= len(st.Tensors) {
		return nil, fmt.Errorf("site %d out of range [0, %d)", site, len(st.Tensors))
	}
	if st.Tensors[site] == nil {
		return nil, fmt.Errorf("site %d has no tensor", site)
	}
	return st.Tensors[site], nil
}
