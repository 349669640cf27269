package sectors

import (
	"github.com/roach88/t3ns/internal/ir"
	"github.com/roach88/t3ns/internal/symmetry"
)

// TargetSectors derives the open bond list from the target state.
//
// A seniority target t >= 0 stands for every seniority s <= t with the
// parity of t and contributes one sector per allowed seniority; t < 0 pins
// the seniority at -t. Every other group contributes its target label.
// All sectors have dimension one.
func TargetSectors(groups symmetry.Groups, target ir.Labels) (List, error) {
	if len(target) != len(groups) {
		return nil, ir.Errorf(ir.ErrCodeSizeMismatch,
			"target state has %d labels for %d symmetries", len(target), len(groups))
	}
	options := make([][]ir.Label, len(groups))
	for i, g := range groups {
		if g.Kind() == symmetry.Seniority {
			options[i] = symmetry.SeniorityRange(target[i])
			continue
		}
		if !g.Valid(target[i]) {
			return nil, ir.Errorf(ir.ErrCodeInvalidIrrepText,
				"target label %d is not a valid %s irrep", int(target[i]), g.Kind())
		}
		options[i] = []ir.Label{target[i]}
	}

	var list List
	for _, irreps := range product(options) {
		list = append(list, Sector{Irreps: irreps, Dim: 1, FCIDim: 1})
	}
	list.Sort()
	return list, nil
}

func product(options [][]ir.Label) []ir.Labels {
	out := []ir.Labels{{}}
	for _, opts := range options {
		next := make([]ir.Labels, 0, len(out)*len(opts))
		for _, prefix := range out {
			for _, l := range opts {
				t := make(ir.Labels, len(prefix), len(prefix)+1)
				copy(t, prefix)
				next = append(next, append(t, l))
			}
		}
		out = next
	}
	return out
}

// orbital occupation of one spatial orbital
type occupation struct {
	particles int
	twoSz     int
	unpaired  int
}

var occupations = []occupation{
	{particles: 0, twoSz: 0, unpaired: 0},
	{particles: 1, twoSz: 1, unpaired: 1},
	{particles: 1, twoSz: -1, unpaired: 1},
	{particles: 2, twoSz: 0, unpaired: 0},
}

// PhysicalSectors returns the local basis of one spatial orbital (empty,
// spin up, spin down, doubly occupied) expressed in the configured groups.
//
// The first U1 counts particles and a second U1 counts 2Sz. With SU2 the two
// singly occupied states form one doublet of reduced dimension one. orbIrrep
// is the point group irrep of the orbital and is ignored without a point
// group.
func PhysicalSectors(groups symmetry.Groups, orbIrrep ir.Label) (List, error) {
	hasSpin := groups.Index(symmetry.SU2) >= 0
	if k, ok := groups.PointGroup(); ok && !groups[groups.Index(k)].Valid(orbIrrep) {
		return nil, ir.Errorf(ir.ErrCodeInvalidIrrepText,
			"orbital irrep %d is not valid in %s", int(orbIrrep), k)
	}

	var list List
	for _, occ := range occupations {
		if hasSpin && occ.twoSz < 0 {
			continue
		}
		irreps := make(ir.Labels, len(groups))
		u1Seen := 0
		for i, g := range groups {
			switch k := g.Kind(); {
			case k == symmetry.Z2:
				irreps[i] = ir.Label(occ.particles % 2)
			case k == symmetry.U1:
				switch u1Seen {
				case 0:
					irreps[i] = ir.Label(occ.particles)
				case 1:
					irreps[i] = ir.Label(occ.twoSz)
				}
				u1Seen++
			case k == symmetry.SU2, k == symmetry.Seniority:
				irreps[i] = ir.Label(occ.unpaired)
			case k.IsPointGroup():
				if occ.particles == 1 {
					irreps[i] = orbIrrep
				}
			}
		}
		if idx, ok := list.Find(irreps); ok {
			list[idx].Dim++
			list[idx].FCIDim++
			continue
		}
		list = append(list, Sector{Irreps: irreps, Dim: 1, FCIDim: 1})
	}
	list.Sort()
	return list, nil
}
