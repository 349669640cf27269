package state

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/roach88/t3ns/internal/ir"
	"github.com/roach88/t3ns/internal/network"
	"github.com/roach88/t3ns/internal/sectors"
	"github.com/roach88/t3ns/internal/sparse"
	"github.com/roach88/t3ns/internal/symmetry"
)

// Config describes a run well enough to build its registry.
type Config struct {
	Groups  symmetry.Groups
	Target  ir.Labels
	Network *network.Network

	// MaxDim caps the dimension of every bond sector. Zero keeps the
	// untruncated dimension.
	MaxDim int

	// HSS overrides the Hamiltonian symmetry sectors.
	HSS sectors.List
	// Physical overrides the local basis of every physical site.
	Physical sectors.List
	// OrbIrreps holds the point group irrep of every orbital.
	OrbIrreps []ir.Label
}

// BuildRegistry derives every sector list from the local bases and the
// target state.
//
// Bond sectors are first fused forward from the vacuum leaves, then pruned
// from the open bond inwards so only sectors that can reach the target
// survive, then fused forward again to obtain their dimensions.
func BuildRegistry(cfg Config) (*sectors.Registry, error) {
	net := cfg.Network
	reg, err := sectors.New(cfg.Groups, cfg.Target, net.NrBonds(), net.NrPhysical())
	if err != nil {
		return nil, err
	}
	if cfg.HSS != nil {
		if err := reg.RegisterHSS(cfg.HSS.Clone()); err != nil {
			return nil, err
		}
	}
	if cfg.OrbIrreps != nil && len(cfg.OrbIrreps) != net.NrPhysical() {
		return nil, ir.Errorf(ir.ErrCodeSizeMismatch,
			"%d orbital irreps for %d orbitals", len(cfg.OrbIrreps), net.NrPhysical())
	}
	for orb := 0; orb < net.NrPhysical(); orb++ {
		list := cfg.Physical.Clone()
		if list == nil {
			var irrep ir.Label
			if cfg.OrbIrreps != nil {
				irrep = cfg.OrbIrreps[orb]
			}
			if list, err = sectors.PhysicalSectors(cfg.Groups, irrep); err != nil {
				return nil, err
			}
		}
		if err := reg.RegisterSiteSectors(orb, list); err != nil {
			return nil, err
		}
	}

	order := net.SweepOrder()
	open := net.OpenBond()

	// forward: leaves first
	forward := func(keep func(int, ir.Labels) bool) error {
		for i := len(order) - 1; i >= 0; i-- {
			b := order[i]
			if net.IsVacuum(b) {
				if err := reg.RegisterSectors(b, sectors.Trivial(cfg.Groups.Trivial())); err != nil {
					return err
				}
				continue
			}
			legs := net.Legs(net.Bond(b)[0])
			in0, err := reg.Leg(legs[0])
			if err != nil {
				return err
			}
			in1, err := reg.Leg(legs[1])
			if err != nil {
				return err
			}
			fused := fuseLists(cfg.Groups, in0, in1, cfg.MaxDim, func(l ir.Labels) bool { return keep(b, l) })
			if b == open {
				continue
			}
			if len(fused) == 0 {
				return ir.Errorf(ir.ErrCodeTargetIncompatible,
					"bond %d has no sector that reaches target %s", b, cfg.Groups.FormatLabels(cfg.Target))
			}
			if err := reg.RegisterSectors(b, fused); err != nil {
				return err
			}
		}
		return nil
	}
	if err := forward(func(int, ir.Labels) bool { return true }); err != nil {
		return nil, err
	}

	target, err := sectors.TargetSectors(cfg.Groups, cfg.Target)
	if err != nil {
		return nil, err
	}
	if err := reg.RegisterSectors(open, target); err != nil {
		return nil, err
	}
	kept, err := prune(reg, net, order)
	if err != nil {
		return nil, err
	}

	if err := forward(func(b int, l ir.Labels) bool {
		_, ok := kept[b].Find(l)
		return ok
	}); err != nil {
		return nil, err
	}

	slog.Debug("registry built",
		"bonds", net.NrBonds(),
		"target", cfg.Groups.FormatLabels(cfg.Target),
		"open_sectors", len(target),
	)
	return reg, nil
}

// prune walks from the open bond inwards and drops incoming sectors that
// cannot fuse into any retained outgoing sector.
func prune(reg *sectors.Registry, net *network.Network, order []int) (map[int]sectors.List, error) {
	groups := reg.Groups()
	kept := map[int]sectors.List{}
	for _, b := range order {
		list, err := reg.Sectors(b)
		if err != nil {
			return nil, err
		}
		kept[b] = list
		if net.IsVacuum(b) {
			continue
		}
		legs := net.Legs(net.Bond(b)[0])
		var in [2]sectors.List
		for i := range in {
			if in[i], err = reg.Leg(legs[i]); err != nil {
				return nil, err
			}
		}
		// leg i is kept if it fuses with some sector of the other leg into a
		// retained outgoing sector
		reachable := func(i int, x ir.Labels) bool {
			for _, y := range in[1-i] {
				a, c := x, y.Irreps
				if i == 1 {
					a, c = c, a
				}
				for _, o := range list {
					if groups.Fusable(a, c, o.Irreps) {
						return true
					}
				}
			}
			return false
		}
		for i := range in {
			if legs[i].Kind != ir.LegBond {
				continue
			}
			var keep sectors.List
			for _, s := range in[i] {
				if reachable(i, s.Irreps) {
					keep = append(keep, s)
				}
			}
			if len(keep) == 0 {
				return nil, ir.Errorf(ir.ErrCodeTargetIncompatible,
					"target %s is not reachable through bond %d", groups.FormatLabels(reg.TargetState()), legs[i].Index)
			}
			if err := reg.RegisterSectors(legs[i].Index, keep); err != nil {
				return nil, err
			}
		}
	}
	return kept, nil
}

// fuseLists fuses every pair of sectors of a and b and accumulates the
// dimensions of the outcomes that pass keep.
func fuseLists(groups symmetry.Groups, a, b sectors.List, maxDim int, keep func(ir.Labels) bool) sectors.List {
	var out sectors.List
	for _, x := range a {
		for _, y := range b {
			if x.Dim == 0 || y.Dim == 0 {
				continue
			}
			for _, l := range groups.FuseAll(x.Irreps, y.Irreps) {
				if !keep(l) {
					continue
				}
				idx, ok := out.Find(l)
				if !ok {
					out = append(out, sectors.Sector{Irreps: l})
					idx = len(out) - 1
				}
				out[idx].Dim += x.Dim * y.Dim
				out[idx].FCIDim += x.FCIDim * y.FCIDim
			}
		}
	}
	if maxDim > 0 {
		for i := range out {
			out[i].Dim = min(out[i].Dim, maxDim)
		}
	}
	out.Sort()
	return out
}

// Fresh builds a state with random normalized site tensors over every
// symmetry-allowed block, identity operators on the vacuum bonds and on
// the open bond, and unattached operators elsewhere. rng seeds the tensor
// entries and must not be nil.
func Fresh(cfg Config, rng *rand.Rand) (*State, error) {
	reg, err := BuildRegistry(cfg)
	if err != nil {
		return nil, err
	}
	s, err := New(reg, cfg.Network)
	if err != nil {
		return nil, err
	}
	net := cfg.Network

	for site := range s.Tensors {
		st := s.Tensors[site]
		ts, err := sparse.ValidTriplets(reg, st.Legs)
		if err != nil {
			return nil, err
		}
		if len(ts) == 0 {
			return nil, fmt.Errorf("site %d has no symmetry-allowed block", site)
		}
		sizes, err := sparse.BlockSizes(reg, st.Legs, ts)
		if err != nil {
			return nil, err
		}
		st.Triplets = ts
		st.Blocks = sparse.NewBlocks(sizes)
		for i := range st.Blocks.Tel {
			st.Blocks.Tel[i] = rng.NormFloat64()
		}
		if _, err := st.Normalize(); err != nil {
			return nil, err
		}
	}

	for b := range s.Ops {
		var dir ir.Direction
		switch {
		case net.IsVacuum(b):
			dir = ir.FromLeft
		case net.IsOpen(b):
			dir = ir.FromRight
		default:
			continue
		}
		if s.Ops[b], err = sparse.Vacuum(reg, b, dir); err != nil {
			return nil, err
		}
	}

	slog.Info("fresh state initialized",
		"sites", net.NrSites(),
		"bonds", net.NrBonds(),
		"groups", cfg.Groups.String(),
	)
	return s, nil
}
