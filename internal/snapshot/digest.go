package snapshot

import (
	"errors"

	"github.com/roach88/t3ns/internal/ir"
	"github.com/roach88/t3ns/internal/sectors"
	"github.com/roach88/t3ns/internal/state"
	"github.com/roach88/t3ns/internal/symmetry"
)

// Describe returns the structural part of a configured state as a canonical
// JSON compatible tree: groups, target, topology, sector tables, tensor
// triplets and operator couplings. Numeric payloads and fci dimensions are
// left out.
func Describe(st *state.State) (map[string]any, error) {
	if !st.Configured() || st.Network == nil {
		return nil, errors.New("describe: state is not configured")
	}
	return describe(st, st.Registry.TargetState())
}

// describe reports target in place of the registry target. A snapshot read
// into a configured state carries the configured target before migration.
func describe(st *state.State, target ir.Labels) (map[string]any, error) {
	reg, net := st.Registry, st.Network
	groups := reg.Groups()

	bonds := make([]any, net.NrBonds())
	for i, b := range net.Bonds() {
		bonds[i] = []int{b[0], b[1]}
	}

	bondSectors := make([]any, net.NrBonds())
	for b := range bondSectors {
		list, err := reg.Sectors(b)
		if err != nil {
			return nil, err
		}
		bondSectors[b] = describeSectors(groups, list)
	}

	tensors := make([]any, len(st.Tensors))
	for i, t := range st.Tensors {
		tensors[i] = map[string]any{
			"triplets": describeTriplets(t.Triplets),
			"sizes":    blockSizes(t.Blocks.BeginBlock),
		}
	}

	ops := make([]any, len(st.Ops))
	for b, r := range st.Ops {
		if r.IsUnattached() {
			ops[b] = map[string]any{"direction": r.Direction.String()}
			continue
		}
		ops[b] = map[string]any{
			"direction":  r.Direction.String(),
			"couplings":  describeTriplets(r.Triplets),
			"hss_of_ops": append([]int{}, r.HSSOfOps...),
		}
	}

	return map[string]any{
		"symmetries": groups.Names(),
		"target":     groups.LabelStrings(target),
		"bonds":      bonds,
		"sitetoorb":  net.SiteToOrb(),
		"sweep":      net.Sweep(),
		"sectors":    bondSectors,
		"hss":        describeSectors(groups, reg.HSS()),
		"tensors":    tensors,
		"operators":  ops,
	}, nil
}

func describeSectors(groups symmetry.Groups, list sectors.List) []any {
	out := make([]any, len(list))
	for i, s := range list {
		out[i] = map[string]any{
			"irreps": groups.FormatLabels(s.Irreps),
			"dim":    s.Dim,
		}
	}
	return out
}

func describeTriplets(ts []ir.Triplet) []any {
	out := make([]any, len(ts))
	for i, t := range ts {
		out[i] = []int{t[0], t[1], t[2]}
	}
	return out
}

func blockSizes(begin []int) []int {
	if len(begin) == 0 {
		return []int{}
	}
	out := make([]int, len(begin)-1)
	for k := range out {
		out[k] = begin[k+1] - begin[k]
	}
	return out
}

// StructureDigest fingerprints Describe(st). States with equal digests
// address their blocks identically.
func StructureDigest(st *state.State) (string, error) {
	d, err := Describe(st)
	if err != nil {
		return "", err
	}
	return ir.StructureDigest(d)
}
